package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ic-control/internal/model"
	"ic-control/internal/repository"
)

func TestPersisterLoadDefaults(t *testing.T) {
	repo := repository.NewFileRepository(filepath.Join(t.TempDir(), "settings.json"), zap.NewNop())
	state, err := NewSettingsPersister(repo, zap.NewNop()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(DefaultState().Serial, state.Serial); diff != "" {
		t.Errorf("serial mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DefaultState().Protocol, state.Protocol); diff != "" {
		t.Errorf("protocol mismatch (-want +got):\n%s", diff)
	}
}

func TestPersisterLoadOverBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"serial": {"line_ending": "crlf"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	base := DefaultState()
	base.Serial.BaudRate = 38400
	base.Protocol.Active = model.ProtocolI3C

	state, err := NewSettingsPersister(repository.NewFileRepository(path, zap.NewNop()), zap.NewNop()).LoadOver(context.Background(), base)
	if err != nil {
		t.Fatalf("LoadOver() error = %v", err)
	}
	if state.Serial.BaudRate != 38400 || state.Serial.LineEnding != model.LineEndingCRLF {
		t.Errorf("serial = %+v, want base baud with stored line ending", state.Serial)
	}
	if state.Protocol.Active != model.ProtocolI3C {
		t.Errorf("Active = %s, want base I3C", state.Protocol.Active)
	}
}

func TestPersisterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	repo := repository.NewFileRepository(path, zap.NewNop())
	p := NewSettingsPersister(repo, zap.NewNop())

	s := newTestSession(t, nil, nil)
	p.Attach(s)

	serial := model.DefaultSerialSettings()
	serial.BaudRate = 115200
	serial.LineEnding = model.LineEndingCRLF
	if err := s.UpdateSerialSettings(serial); err != nil {
		t.Fatalf("UpdateSerialSettings() error = %v", err)
	}
	if err := s.SetActiveProtocol(model.ProtocolSPI); err != nil {
		t.Fatalf("SetActiveProtocol() error = %v", err)
	}
	control := model.DefaultControlState()
	control.Voltage = decimal.RequireFromString("1.80")
	if err := s.UpdateControl(control); err != nil {
		t.Fatalf("UpdateControl() error = %v", err)
	}

	loaded, err := NewSettingsPersister(repository.NewFileRepository(path, zap.NewNop()), zap.NewNop()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(serial, loaded.Serial); diff != "" {
		t.Errorf("serial mismatch (-want +got):\n%s", diff)
	}
	if loaded.Protocol.Active != model.ProtocolSPI {
		t.Errorf("Active = %s, want SPI", loaded.Protocol.Active)
	}
	if diff := cmp.Diff(DefaultState().Protocol.SPI, loaded.Protocol.SPI); diff != "" {
		t.Errorf("SPI params changed by switching protocol (-want +got):\n%s", diff)
	}
	if !loaded.Control.Voltage.Equal(control.Voltage) {
		t.Errorf("Voltage = %s, want %s", loaded.Control.Voltage, control.Voltage)
	}
}

func TestPersisterPartialBlobKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	blob := `{"serial": {"baud_rate": 57600}, "protocol": {"active": "BOGUS"}, "control": "garbage"}`
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := NewSettingsPersister(repository.NewFileRepository(path, zap.NewNop()), zap.NewNop()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := model.DefaultSerialSettings()
	want.BaudRate = 57600
	if diff := cmp.Diff(want, state.Serial); diff != "" {
		t.Errorf("serial mismatch (-want +got):\n%s", diff)
	}
	if state.Protocol.Active != model.ProtocolRFFE {
		t.Errorf("Active = %s, want RFFE fallback", state.Protocol.Active)
	}
	if !state.Control.Voltage.Equal(model.DefaultControlState().Voltage) {
		t.Errorf("Voltage = %s, want default", state.Control.Voltage)
	}
}

func TestPersisterSkipsLogFilters(t *testing.T) {
	repo := repository.NewFileRepository(filepath.Join(t.TempDir(), "settings.json"), zap.NewNop())
	s := newTestSession(t, nil, nil)
	NewSettingsPersister(repo, zap.NewNop()).Attach(s)

	s.SetLogFilters(false, true)

	keys, err := repo.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Keys() = %v, want none", keys)
	}
}
