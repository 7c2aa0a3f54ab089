// internal/repository/file_repository.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// fileRepository keeps every key in one JSON object on disk
type fileRepository struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileRepository creates a JSON-file settings repository
func NewFileRepository(path string, logger *zap.Logger) SettingsRepository {
	return &fileRepository{
		path:   path,
		logger: logger,
	}
}

func (r *fileRepository) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	blobs := map[string]json.RawMessage{}
	if len(data) == 0 {
		return blobs, nil
	}
	if err := json.Unmarshal(data, &blobs); err != nil {
		return nil, fmt.Errorf("failed to decode settings file %s: %w", r.path, err)
	}
	return blobs, nil
}

func (r *fileRepository) write(blobs map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(blobs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// Get returns the stored blob
func (r *fileRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	blobs, err := r.read()
	if err != nil {
		return nil, err
	}
	value, ok := blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

// Put inserts or replaces a blob
func (r *fileRepository) Put(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("setting %s is not valid JSON", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	blobs, err := r.read()
	if err != nil {
		return err
	}
	blobs[key] = json.RawMessage(value)
	if err := r.write(blobs); err != nil {
		r.logger.Error("Failed to store setting", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes a blob
func (r *fileRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	blobs, err := r.read()
	if err != nil {
		return err
	}
	if _, ok := blobs[key]; !ok {
		return ErrNotFound
	}
	delete(blobs, key)
	return r.write(blobs)
}

// Keys lists the stored keys in order
func (r *fileRepository) Keys(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	blobs, err := r.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(blobs))
	for k := range blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
