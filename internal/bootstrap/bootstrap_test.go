package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"ic-control/internal/config"
	"ic-control/internal/model"
	"ic-control/internal/protocol"
	"ic-control/internal/register"
)

func TestBaseState(t *testing.T) {
	cfg := &config.Config{}
	cfg.Device.DefaultPort.Serial = config.SerialPortConfig{
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    1,
		Parity:      "none",
		FlowControl: "none",
		LineEnding:  "crlf",
		DeviceType:  "ft260",
	}

	tests := []struct {
		name     string
		protocol string
		want     model.ProtocolKind
	}{
		{"lower case", "spi", model.ProtocolSPI},
		{"upper case", "I3C", model.ProtocolI3C},
		{"unknown keeps default", "jtag", model.ProtocolRFFE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Session.Protocol = tt.protocol
			state := BaseState(cfg)
			if state.Protocol.Active != tt.want {
				t.Errorf("active protocol = %q, want %q", state.Protocol.Active, tt.want)
			}
			if state.Serial.BaudRate != 115200 {
				t.Errorf("baud rate = %d, want 115200", state.Serial.BaudRate)
			}
			if state.Serial.LineEnding != model.LineEnding("crlf") {
				t.Errorf("line ending = %q, want crlf", state.Serial.LineEnding)
			}
			if state.Serial.DeviceType != model.DeviceTypeFT260 {
				t.Errorf("device type = %q, want ft260", state.Serial.DeviceType)
			}
		})
	}
}

func TestLinkDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.Device.DefaultPort.USB.Timeout = 3 * time.Second
	cfg.Device.DefaultPort.TCP.KeepAlive = false

	want := protocol.DefaultDefaults()
	want.USBTimeout = 3 * time.Second
	want.TCPKeepAlive = false

	if diff := cmp.Diff(want, LinkDefaults(cfg)); diff != "" {
		t.Errorf("LinkDefaults() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Device.Simulation = true
	cfg.Device.ScanTimeout = 7 * time.Second
	cfg.Transport.MaxEntries = 500
	cfg.Transport.TXEnabled = true
	cfg.Session.ReadTimeout = 250 * time.Millisecond

	topts := TransportOptions(cfg)
	if !topts.Simulation || !topts.TXEnabled || topts.RXEnabled {
		t.Errorf("transport flags = sim %v tx %v rx %v", topts.Simulation, topts.TXEnabled, topts.RXEnabled)
	}
	if topts.MaxEntries != 500 {
		t.Errorf("max entries = %d, want 500", topts.MaxEntries)
	}

	sopts := SessionOptions(cfg)
	if sopts.ReadTimeout != 250*time.Millisecond {
		t.Errorf("read timeout = %v, want 250ms", sopts.ReadTimeout)
	}
	if sopts.ScanTimeout != 7*time.Second {
		t.Errorf("scan timeout = %v, want 7s", sopts.ScanTimeout)
	}
}

func TestLoadRegisters(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.yaml")
	if err := register.New([]register.Register{{Address: 0x10, Name: "CTRL"}}).SaveFile(valid); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(broken, []byte("registers: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{"valid file", valid, 1},
		{"missing file", filepath.Join(dir, "missing.yaml"), register.NewDefault().Len()},
		{"malformed file", broken, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, path := LoadRegisters(tt.path, zap.NewNop())
			if path != tt.path {
				t.Errorf("path = %q, want %q", path, tt.path)
			}
			if m.Len() != tt.want {
				t.Errorf("registers = %d, want %d", m.Len(), tt.want)
			}
		})
	}
}
