package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"ic-control/internal/config"
	"ic-control/internal/database"
)

// exercise runs the same contract against any repository
func exercise(t *testing.T, repo SettingsRepository) {
	t.Helper()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "serial"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.Put(ctx, "serial", []byte(`{"baud_rate":9600}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := repo.Put(ctx, "serial", []byte(`{"baud_rate":115200}`)); err != nil {
		t.Fatalf("Put(replace) error = %v", err)
	}
	if err := repo.Put(ctx, "control", []byte(`{"voltage":"3.3"}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := repo.Get(ctx, "serial")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(`{"baud_rate":115200}`, compact(got)); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	keys, err := repo.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if diff := cmp.Diff([]string{"control", "serial"}, keys); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	if err := repo.Delete(ctx, "control"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "control"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func compact(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c != ' ' && c != '\n' && c != '\t' {
			out = append(out, c)
		}
	}
	return string(out)
}

func TestFileRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	exercise(t, NewFileRepository(path, zap.NewNop()))

	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestFileRepositoryRejectsInvalid(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "settings.json"), zap.NewNop())
	if err := repo.Put(context.Background(), "serial", []byte("{")); err == nil {
		t.Error("Put(invalid JSON) expected error")
	}
}

func TestFileRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := NewFileRepository(path, zap.NewNop())
	if _, err := repo.Get(context.Background(), "serial"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on corrupt file error = %v, want decode error", err)
	}
}

// TestSettingsRepository runs against a real database when IC_CONTROL_TEST_POSTGRES_HOST is set
func TestSettingsRepository(t *testing.T) {
	host := os.Getenv("IC_CONTROL_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("IC_CONTROL_TEST_POSTGRES_HOST not set")
	}

	cfg := &config.DatabaseConfig{
		Host: host, Port: 5432, User: "postgres", Password: os.Getenv("IC_CONTROL_TEST_POSTGRES_PASSWORD"),
		DBName: "ic_control_test", SSLMode: "disable", MaxOpenConns: 2, MaxIdleConns: 1,
	}
	db, err := database.NewConnection(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db, zap.NewNop())
	if err := migrator.Up(); err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if _, err := db.Exec(`DELETE FROM settings`); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	exercise(t, NewSettingsRepository(db, zap.NewNop()))
}
