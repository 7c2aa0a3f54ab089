// internal/service/persister.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ic-control/internal/model"
	"ic-control/internal/repository"
)

// SettingsPersister loads the session state at startup and writes every
// settings change back to the repository
type SettingsPersister struct {
	repo    repository.SettingsRepository
	logger  *zap.Logger
	timeout time.Duration
}

var persisted = map[string]bool{
	SettingsSerial:   true,
	SettingsProtocol: true,
	SettingsControl:  true,
}

// NewSettingsPersister creates a persister
func NewSettingsPersister(repo repository.SettingsRepository, logger *zap.Logger) *SettingsPersister {
	return &SettingsPersister{
		repo:    repo,
		logger:  logger.With(zap.String("component", "settings_persister")),
		timeout: 5 * time.Second,
	}
}

// Load returns the persisted state over DefaultState
func (p *SettingsPersister) Load(ctx context.Context) (State, error) {
	return p.LoadOver(ctx, DefaultState())
}

// LoadOver returns the persisted state over base. Missing keys keep the base
// values, undecodable blobs are logged and skipped.
func (p *SettingsPersister) LoadOver(ctx context.Context, base State) (State, error) {
	state := base
	targets := map[string]func([]byte) error{
		SettingsSerial:   func(b []byte) error { return decodeOver(b, &state.Serial) },
		SettingsProtocol: func(b []byte) error { return decodeOver(b, &state.Protocol) },
		SettingsControl:  func(b []byte) error { return decodeOver(b, &state.Control) },
	}

	for _, key := range []string{SettingsSerial, SettingsProtocol, SettingsControl} {
		blob, err := p.repo.Get(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return base, fmt.Errorf("failed to load %s settings: %w", key, err)
		}

		if err := targets[key](blob); err != nil {
			p.logger.Warn("Ignoring unreadable settings", zap.String("key", key), zap.Error(err))
			continue
		}
	}

	if _, err := model.ParseProtocolKind(string(state.Protocol.Active)); err != nil {
		state.Protocol.Active = model.ProtocolRFFE
	}
	return state, nil
}

// decodeOver decodes blob on top of a copy of dst and only commits on success
func decodeOver[T any](blob []byte, dst *T) error {
	v := *dst
	if err := json.Unmarshal(blob, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// Save writes one blob
func (p *SettingsPersister) Save(ctx context.Context, key string, value interface{}) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s settings: %w", key, err)
	}
	return p.repo.Put(ctx, key, blob)
}

// Attach subscribes to the session's settings changes
func (p *SettingsPersister) Attach(session *DeviceSession) {
	session.Subscribe(func(ev model.SessionEvent) {
		if ev.Type != model.EventSettingsChanged {
			return
		}
		data, ok := ev.Data.(SettingsEventData)
		if !ok || !persisted[data.Key] {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.Save(ctx, data.Key, data.Value); err != nil {
			p.logger.Error("Failed to persist settings", zap.String("key", data.Key), zap.Error(err))
			return
		}
		p.logger.Debug("Settings persisted", zap.String("key", data.Key))
	})
}
