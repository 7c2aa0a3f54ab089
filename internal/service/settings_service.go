// internal/service/settings_service.go
package service

import (
	"ic-control/internal/model"
)

// UpdateSerialSettings validates and stores new link settings. They apply to
// the line ending immediately and to the port parameters on the next connect.
func (s *DeviceSession) UpdateSerialSettings(settings model.SerialSettings) error {
	if err := validateSerial(settings); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.state.Serial
	s.state.Serial = settings
	s.mu.Unlock()

	s.transport.UpdateSettings(settings)
	s.audit.LogSettingsChange(SettingsSerial, old, settings)
	s.publish(model.EventSettingsChanged, SettingsEventData{Key: SettingsSerial, Value: settings})
	return nil
}

// SetActiveProtocol switches the protocol without touching any parameter set
func (s *DeviceSession) SetActiveProtocol(kind model.ProtocolKind) error {
	if _, err := model.ParseProtocolKind(string(kind)); err != nil {
		return invalid("%v", err)
	}

	s.mu.Lock()
	s.state.Protocol.Active = kind
	cfg := s.state.Protocol
	s.mu.Unlock()

	s.publish(model.EventSettingsChanged, SettingsEventData{Key: SettingsProtocol, Value: cfg})
	return nil
}

// UpdateProtocol replaces the protocol configuration
func (s *DeviceSession) UpdateProtocol(cfg model.ProtocolConfig) error {
	kind, err := model.ParseProtocolKind(string(cfg.Active))
	if err != nil {
		return invalid("%v", err)
	}
	cfg.Active = kind

	s.mu.Lock()
	old := s.state.Protocol
	s.state.Protocol = cfg
	s.mu.Unlock()

	s.audit.LogSettingsChange(SettingsProtocol, old, cfg)
	s.publish(model.EventSettingsChanged, SettingsEventData{Key: SettingsProtocol, Value: cfg})
	return nil
}

// UpdateControl replaces the voltage, frequency and register values
func (s *DeviceSession) UpdateControl(c model.ControlState) error {
	if c.Voltage.IsNegative() {
		return invalid("voltage must not be negative")
	}

	s.mu.Lock()
	s.state.Control = c
	s.mu.Unlock()

	s.publish(model.EventSettingsChanged, SettingsEventData{Key: SettingsControl, Value: c})
	return nil
}

func validateSerial(s model.SerialSettings) error {
	if s.BaudRate <= 0 {
		return invalid("baud rate must be positive")
	}
	if s.DataBits < 5 || s.DataBits > 8 {
		return invalid("data bits must be 5..8")
	}
	if s.StopBits != 1 && s.StopBits != 2 {
		return invalid("stop bits must be 1 or 2")
	}
	switch s.Parity {
	case "none", "odd", "even":
	default:
		return invalid("unknown parity %q", s.Parity)
	}
	switch s.FlowControl {
	case "none", "hardware", "software":
	default:
		return invalid("unknown flow control %q", s.FlowControl)
	}
	if !s.LineEnding.Valid() {
		return invalid("unknown line ending %q", s.LineEnding)
	}
	if !s.DeviceType.Valid() {
		return invalid("unknown device type %q", s.DeviceType)
	}
	return nil
}
