// internal/service/session_service.go
package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ic-control/internal/encoder"
	"ic-control/internal/model"
	"ic-control/internal/register"
	"ic-control/internal/transport"
	"ic-control/internal/utils"
)

// Options tunes session feedback timings
type Options struct {
	PendingMin     time.Duration
	SuccessDisplay time.Duration
	SimReadDelay   time.Duration
	ReadTimeout    time.Duration
	ScanTimeout    time.Duration

	// RandomByte produces simulated read values; nil uses math/rand
	RandomByte func() uint32
}

// DefaultOptions returns the bench application timings
func DefaultOptions() Options {
	return Options{
		PendingMin:     400 * time.Millisecond,
		SuccessDisplay: 2 * time.Second,
		SimReadDelay:   200 * time.Millisecond,
		ReadTimeout:    time.Second,
		ScanTimeout:    5 * time.Second,
	}
}

// State is the user-editable session state loaded from persistence
type State struct {
	Serial   model.SerialSettings `json:"serial"`
	Protocol model.ProtocolConfig `json:"protocol"`
	Control  model.ControlState   `json:"control"`
}

// DefaultState returns the first-start state
func DefaultState() State {
	return State{
		Serial:   model.DefaultSerialSettings(),
		Protocol: model.DefaultProtocolConfig(),
		Control:  model.DefaultControlState(),
	}
}

// Snapshot is the full observable session state
type Snapshot struct {
	Connection transport.Status                      `json:"connection"`
	Serial     model.SerialSettings                  `json:"serial"`
	Protocol   model.ProtocolConfig                  `json:"protocol"`
	Control    model.ControlState                    `json:"control"`
	Outcomes   map[model.Operation]model.SendOutcome `json:"outcomes"`
	Registers  int                                   `json:"registers"`
}

// Settings keys carried by EventSettingsChanged
const (
	SettingsSerial   = "serial"
	SettingsProtocol = "protocol"
	SettingsControl  = "control"

	// SettingsLogFilters is published on filter changes but not persisted
	SettingsLogFilters = "log_filters"
)

// LogFilters is the TX/RX capture selection
type LogFilters struct {
	TX bool `json:"tx"`
	RX bool `json:"rx"`
}

// SettingsEventData carries one replaced settings blob
type SettingsEventData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// DeviceSession composes transport, encoder and register map into the
// operations the UI calls
type DeviceSession struct {
	transport *transport.Transport
	registers *register.Map
	opts      Options
	logger    *utils.ServiceLogger
	audit     *utils.AuditLogger
	outcomes  *outcomeTracker

	mu        sync.Mutex
	state     State
	device    *utils.DeviceLogger
	listeners []func(model.SessionEvent)
}

// NewDeviceSession wires a session around an existing transport and register map.
// The map's write-back is pointed at the session.
func NewDeviceSession(
	tr *transport.Transport,
	registers *register.Map,
	initial State,
	opts Options,
	logger *zap.Logger,
) *DeviceSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RandomByte == nil {
		opts.RandomByte = func() uint32 { return uint32(rand.IntN(256)) }
	}

	s := &DeviceSession{
		transport: tr,
		registers: registers,
		opts:      opts,
		logger:    utils.NewServiceLogger(logger, "device-session"),
		audit:     utils.NewAuditLogger(logger),
		state:     initial,
	}
	s.outcomes = newOutcomeTracker(opts.PendingMin, opts.SuccessDisplay, func(op model.Operation, o model.SendOutcome) {
		s.publish(model.EventOutcomeChanged, model.OutcomeEventData{Operation: op, Outcome: o})
	})

	tr.UpdateSettings(initial.Serial)
	tr.OnStateChange(func(st transport.Status) {
		s.publish(model.EventConnectionChanged, model.ConnectionEventData{
			State:         string(st.State),
			Device:        st.Device,
			LastConnected: st.LastConnected,
			Error:         st.LastError,
		})
	})
	tr.Subscribe(func(batch []model.LogEntry) {
		s.publish(model.EventLogFlushed, batch)
	})
	registers.SetWriteBack(s)
	registers.OnChange(func(r register.Register) {
		s.publish(model.EventRegisterChanged, r)
	})
	return s
}

// Subscribe registers fn for every session event
func (s *DeviceSession) Subscribe(fn func(model.SessionEvent)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *DeviceSession) publish(t model.EventType, data interface{}) {
	s.mu.Lock()
	listeners := s.listeners
	s.mu.Unlock()

	ev := model.SessionEvent{Type: t, Data: data, Timestamp: time.Now()}
	for _, fn := range listeners {
		fn(ev)
	}
}

// Transport returns the underlying transport
func (s *DeviceSession) Transport() *transport.Transport {
	return s.transport
}

// Registers returns the register map
func (s *DeviceSession) Registers() *register.Map {
	return s.registers
}

// Snapshot returns the observable state
func (s *DeviceSession) Snapshot() Snapshot {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	return Snapshot{
		Connection: s.transport.Status(),
		Serial:     state.Serial,
		Protocol:   state.Protocol,
		Control:    state.Control,
		Outcomes:   s.outcomes.all(),
		Registers:  s.registers.Len(),
	}
}

// Outcome returns the current feedback state of op
func (s *DeviceSession) Outcome(op model.Operation) model.SendOutcome {
	return s.outcomes.get(op)
}

// State returns a copy of the editable state
func (s *DeviceSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ClearLog empties the communication log
func (s *DeviceSession) ClearLog() {
	s.transport.ClearLog()
	s.publish(model.EventLogCleared, nil)
}

// SetLogFilters toggles TX/RX capture
func (s *DeviceSession) SetLogFilters(tx, rx bool) {
	s.transport.SetFilters(tx, rx)
	s.publish(model.EventSettingsChanged, SettingsEventData{Key: SettingsLogFilters, Value: LogFilters{TX: tx, RX: rx}})
}

// Scan lists candidate devices
func (s *DeviceSession) Scan(ctx context.Context) ([]string, error) {
	if s.opts.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ScanTimeout)
		defer cancel()
	}
	return s.transport.Scan(ctx)
}

// Connect opens descriptor with the current serial settings
func (s *DeviceSession) Connect(ctx context.Context, descriptor string) error {
	s.mu.Lock()
	s.device = utils.NewDeviceLogger(s.logger.Logger, model.PortName(descriptor), string(s.state.Serial.DeviceType))
	dl := s.device
	s.mu.Unlock()

	err := s.outcomes.track(ctx, model.OperationConnect, func(ctx context.Context) error {
		return s.transport.Connect(ctx, descriptor)
	})
	dl.LogConnection("connect", err)
	return err
}

// Disconnect closes the current link
func (s *DeviceSession) Disconnect(ctx context.Context) error {
	err := s.outcomes.track(ctx, model.OperationDisconnect, s.transport.Disconnect)
	s.deviceLogger().LogConnection("disconnect", err)
	return err
}

func (s *DeviceSession) deviceLogger() *utils.DeviceLogger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		s.device = utils.NewDeviceLogger(s.logger.Logger, "", string(s.state.Serial.DeviceType))
	}
	return s.device
}

// sendSequence sends commands in order and stops at the first failure
func (s *DeviceSession) sendSequence(ctx context.Context, op model.Operation, enc encoder.Encoded) error {
	start := time.Now()
	opLogger := utils.NewOperationLogger(s.logger.Logger, string(op), fmt.Sprintf("%d", start.UnixNano()))
	startFields := []zap.Field{zap.Int("commands", len(enc.Commands))}
	if enc.Adjusted() {
		startFields = append(startFields, zap.Stringers("adjustments", enc.Adjustments))
	}
	opLogger.Start(startFields...)

	var err error
	for i, cmd := range enc.Commands {
		if sendErr := s.transport.Send(ctx, cmd); sendErr != nil {
			if len(enc.Commands) == 1 {
				err = sendErr
			} else {
				err = &SequenceAbortError{Sent: i, Total: len(enc.Commands), Command: cmd, Err: sendErr}
			}
			break
		}
		opLogger.Progress("Command sent", i+1, len(enc.Commands), zap.String("command", cmd))
	}

	if err != nil {
		opLogger.Error(err, zap.Int("commands", len(enc.Commands)))
	} else {
		opLogger.Success(zap.Int("commands", len(enc.Commands)))
	}
	s.deviceLogger().LogOperation(string(op), len(enc.Commands), time.Since(start), err)
	return err
}

// ApplyOutputLevel sends the vio command for the current control state
func (s *DeviceSession) ApplyOutputLevel(ctx context.Context) error {
	vio := s.State().Control.VIO
	return s.outcomes.track(ctx, model.OperationOutputLevel, func(ctx context.Context) error {
		return s.sendSequence(ctx, model.OperationOutputLevel, encoder.OutputLevel(vio))
	})
}

// ApplyClockConfig sends the clock setup of the active protocol
func (s *DeviceSession) ApplyClockConfig(ctx context.Context) error {
	cfg := s.State().Protocol
	return s.outcomes.track(ctx, model.OperationClockConfig, func(ctx context.Context) error {
		enc, err := encoder.ClockConfig(cfg)
		if err != nil {
			return err
		}
		return s.sendSequence(ctx, model.OperationClockConfig, enc)
	})
}

// WriteRegister encodes a register write for the active protocol and stores
// value in the map once the device accepted it. It is also the map's field
// write-back path.
func (s *DeviceSession) WriteRegister(ctx context.Context, address, value uint32) error {
	cfg := s.State().Protocol
	return s.outcomes.track(ctx, model.OperationWriteRegister, func(ctx context.Context) error {
		enc, err := encoder.WriteRegister(cfg, address, value)
		if err != nil {
			return err
		}
		if err := s.sendSequence(ctx, model.OperationWriteRegister, enc); err != nil {
			return err
		}
		s.registers.SetValue(address, value)
		s.audit.LogRegisterWrite(address, value, string(cfg.Active))
		return nil
	})
}

// WriteBitfield updates one field of a register and pushes the register
// unless it is read-only
func (s *DeviceSession) WriteBitfield(ctx context.Context, address uint32, field string, value uint32) (uint32, error) {
	return s.registers.WriteBitfield(ctx, address, field, value)
}

// ReadRegister reads a register value from the device. The read command is
// sent in both modes; the virtual device answers with a pseudo-random byte
// after SimReadDelay.
func (s *DeviceSession) ReadRegister(ctx context.Context, address uint32) (uint32, error) {
	var value uint32
	err := s.outcomes.track(ctx, model.OperationReadRegister, func(ctx context.Context) error {
		v, err := s.readRegister(ctx, address)
		if err != nil {
			return &ReadError{Address: address, Err: err}
		}
		value = v
		s.registers.SetValue(address, v)
		return nil
	})
	return value, err
}

func (s *DeviceSession) readRegister(ctx context.Context, address uint32) (uint32, error) {
	if !s.transport.IsConnected() {
		return 0, transport.ErrNotConnected
	}

	if s.transport.IsVirtual() {
		if err := s.sendSequence(ctx, model.OperationReadRegister, encoder.ReadRegister(address)); err != nil {
			return 0, err
		}
		timer := time.NewTimer(s.opts.SimReadDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
		v := s.opts.RandomByte() & 0xFF
		s.transport.Ingest(fmt.Sprintf("[SIM] Read 0x%02X = 0x%02X", address, v), model.DirectionRX, true)
		return v, nil
	}

	resp := s.transport.Expect(func(data string) bool {
		_, ok := ParseReadValue(data)
		return ok
	})
	if err := s.sendSequence(ctx, model.OperationReadRegister, encoder.ReadRegister(address)); err != nil {
		resp.Cancel()
		return 0, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.ReadTimeout)
	defer cancel()
	data, err := resp.Wait(waitCtx)
	if err != nil {
		return 0, err
	}
	v, _ := ParseReadValue(data)
	return v, nil
}

// ParseReadValue extracts the value from a read reply. The last token after
// '=', ',' or whitespace is taken as decimal or 0x-hex.
func ParseReadValue(data string) (uint32, bool) {
	data = strings.TrimSpace(data)
	if data == "" {
		return 0, false
	}
	fields := strings.FieldsFunc(data, func(r rune) bool {
		return r == '=' || r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return 0, false
	}
	n, ok := register.ParseNumber(fields[len(fields)-1])
	if !ok || n > 0xFFFFFFFF {
		return 0, false
	}
	return uint32(n), true
}

// ApplyVoltage sends VOLT:<v> for the current control state
func (s *DeviceSession) ApplyVoltage(ctx context.Context) error {
	v := s.State().Control.Voltage
	return s.outcomes.track(ctx, model.OperationVoltage, func(ctx context.Context) error {
		return s.sendSequence(ctx, model.OperationVoltage, encoder.LegacyVoltage(v))
	})
}

// ApplyFrequency sends FREQ:<hz> for the current control state
func (s *DeviceSession) ApplyFrequency(ctx context.Context) error {
	hz := s.State().Control.FrequencyHz
	return s.outcomes.track(ctx, model.OperationFrequency, func(ctx context.Context) error {
		return s.sendSequence(ctx, model.OperationFrequency, encoder.LegacyFrequency(hz))
	})
}

// ApplyRegisterValue sends REG:0x<value> for the current control state
func (s *DeviceSession) ApplyRegisterValue(ctx context.Context) error {
	v := s.State().Control.RegisterValue
	return s.outcomes.track(ctx, model.OperationRegisterValue, func(ctx context.Context) error {
		return s.sendSequence(ctx, model.OperationRegisterValue, encoder.LegacyRegisterValue(v))
	})
}

// SendRaw transmits a user-typed command unchanged apart from the line ending
func (s *DeviceSession) SendRaw(ctx context.Context, data string) error {
	return s.transport.Send(ctx, data)
}
