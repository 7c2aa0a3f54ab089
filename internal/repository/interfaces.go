// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a settings key was never stored
var ErrNotFound = errors.New("setting not found")

// SettingsRepository stores opaque JSON blobs by key
type SettingsRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
