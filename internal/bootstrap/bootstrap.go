// internal/bootstrap/bootstrap.go

// Package bootstrap maps configuration onto the runtime components shared by
// the server and the command line tool.
package bootstrap

import (
	"errors"
	"os"
	"strings"

	"go.uber.org/zap"

	"ic-control/internal/config"
	"ic-control/internal/discovery"
	serialscan "ic-control/internal/discovery/serial"
	tcpscan "ic-control/internal/discovery/tcp"
	usbscan "ic-control/internal/discovery/usb"
	"ic-control/internal/model"
	"ic-control/internal/protocol"
	"ic-control/internal/register"
	"ic-control/internal/service"
	"ic-control/internal/transport"
)

// NewScannerManager registers the serial, USB and TCP bridge scanners
func NewScannerManager(cfg *config.Config, logger *zap.Logger) *discovery.ScannerManager {
	scanners := discovery.NewScannerManager(logger)
	scanners.RegisterScanner(serialscan.NewScanner(logger, nil))
	scanners.RegisterScanner(usbscan.NewScanner(logger))
	tcp := cfg.Device.DefaultPort.TCP
	scanners.RegisterScanner(tcpscan.NewScanner(logger, tcp.Bridges, tcp.ConnectTimeout))
	return scanners
}

// LoadRegisters loads the register map at path, or at the per-user location
// when path is empty, and returns the map with the resolved path. A missing
// file yields the built-in registers; a malformed one yields an empty map.
func LoadRegisters(path string, logger *zap.Logger) (*register.Map, string) {
	if path == "" {
		p, err := register.UserMapPath()
		if err != nil {
			logger.Warn("No register map location, using built-in registers", zap.Error(err))
			return register.NewDefault(), ""
		}
		path = p
	}

	m, err := register.LoadFile(path)
	var parseErr *register.MapParseError
	switch {
	case err == nil:
		return m, path
	case errors.Is(err, os.ErrNotExist):
		return register.NewDefault(), path
	case errors.As(err, &parseErr):
		logger.Warn("Register map is malformed, starting empty", zap.String("path", path), zap.Error(err))
		return register.New(nil), path
	default:
		logger.Warn("Register map unreadable, using built-in registers", zap.String("path", path), zap.Error(err))
		return register.NewDefault(), path
	}
}

// NewBridge builds the hardware bridge over the configured scanners
func NewBridge(cfg *config.Config, scanners *discovery.ScannerManager, logger *zap.Logger) *protocol.Bridge {
	return protocol.NewBridge(scanners, LinkDefaults(cfg), logger)
}

// BaseState seeds first-start settings from configuration. Persisted
// settings are layered over it.
func BaseState(cfg *config.Config) service.State {
	state := service.DefaultState()

	sp := cfg.Device.DefaultPort.Serial
	state.Serial.BaudRate = sp.BaudRate
	state.Serial.DataBits = sp.DataBits
	state.Serial.StopBits = sp.StopBits
	state.Serial.Parity = sp.Parity
	state.Serial.FlowControl = sp.FlowControl
	state.Serial.LineEnding = model.LineEnding(sp.LineEnding)
	state.Serial.DeviceType = model.DeviceType(sp.DeviceType)

	if kind, err := model.ParseProtocolKind(strings.ToUpper(cfg.Session.Protocol)); err == nil {
		state.Protocol.Active = kind
	}
	return state
}

// LinkDefaults maps port configuration onto the bridge defaults
func LinkDefaults(cfg *config.Config) protocol.Defaults {
	d := protocol.DefaultDefaults()
	ports := cfg.Device.DefaultPort
	if ports.Serial.ReadTimeout > 0 {
		d.SerialReadTimeout = ports.Serial.ReadTimeout
	}
	if ports.USB.Timeout > 0 {
		d.USBTimeout = ports.USB.Timeout
	}
	if ports.TCP.ConnectTimeout > 0 {
		d.TCPConnectTimeout = ports.TCP.ConnectTimeout
	}
	if ports.TCP.WriteTimeout > 0 {
		d.TCPWriteTimeout = ports.TCP.WriteTimeout
	}
	d.TCPKeepAlive = ports.TCP.KeepAlive
	return d
}

// TransportOptions maps transport configuration onto transport options
func TransportOptions(cfg *config.Config) transport.Options {
	opts := transport.DefaultOptions()
	opts.Simulation = cfg.Device.Simulation
	opts.TXEnabled = cfg.Transport.TXEnabled
	opts.RXEnabled = cfg.Transport.RXEnabled
	if cfg.Transport.FlushInterval > 0 {
		opts.FlushInterval = cfg.Transport.FlushInterval
	}
	if cfg.Transport.MaxEntries > 0 {
		opts.MaxEntries = cfg.Transport.MaxEntries
	}
	if cfg.Transport.SimulatedLatency > 0 {
		opts.SimulatedLatency = cfg.Transport.SimulatedLatency
	}
	if cfg.Transport.AckDelay > 0 {
		opts.AckDelay = cfg.Transport.AckDelay
	}
	return opts
}

// SessionOptions maps session configuration onto session options
func SessionOptions(cfg *config.Config) service.Options {
	opts := service.DefaultOptions()
	s := cfg.Session
	if s.PendingMin > 0 {
		opts.PendingMin = s.PendingMin
	}
	if s.SuccessDisplay > 0 {
		opts.SuccessDisplay = s.SuccessDisplay
	}
	if s.SimReadDelay > 0 {
		opts.SimReadDelay = s.SimReadDelay
	}
	if s.ReadTimeout > 0 {
		opts.ReadTimeout = s.ReadTimeout
	}
	if cfg.Device.ScanTimeout > 0 {
		opts.ScanTimeout = cfg.Device.ScanTimeout
	}
	return opts
}
