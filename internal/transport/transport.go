// internal/transport/transport.go

// Package transport owns the single device link and the traffic log.
package transport

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ic-control/internal/model"
)

// VirtualDevice is the descriptor of the simulated device
const VirtualDevice = "Virtual Device (Simulation)"

// State is the connection state
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Driver is the physical link collaborator
type Driver interface {
	Scan(ctx context.Context) ([]string, error)
	Open(ctx context.Context, port string, settings model.SerialSettings) error
	Close() error
	Write(ctx context.Context, data []byte) error
	SetReceiveHandler(fn func([]byte))
}

// Options tunes the transport
type Options struct {
	Simulation       bool
	SimulatedLatency time.Duration
	AckDelay         time.Duration
	FlushInterval    time.Duration
	MaxEntries       int
	TXEnabled        bool
	RXEnabled        bool
}

// DefaultOptions returns the timings of the bench application
func DefaultOptions() Options {
	return Options{
		SimulatedLatency: 300 * time.Millisecond,
		AckDelay:         50 * time.Millisecond,
		FlushInterval:    16 * time.Millisecond,
		MaxEntries:       10000,
	}
}

// Status is a snapshot of the connection
type Status struct {
	State         State  `json:"state"`
	Device        string `json:"device,omitempty"`
	Selected      string `json:"selected,omitempty"`
	LastConnected string `json:"last_connected,omitempty"`
	LastError     string `json:"last_error,omitempty"`
	Simulation    bool   `json:"simulation"`
	TXEnabled     bool   `json:"tx_enabled"`
	RXEnabled     bool   `json:"rx_enabled"`
}

// Transport serializes access to one device link and ingests its traffic
type Transport struct {
	driver Driver
	opts   Options
	logger *zap.Logger

	mu            sync.Mutex
	state         State
	closing       bool
	device        string
	selected      string
	lastConnected string
	lastError     string
	settings      model.SerialSettings
	simulation    bool
	txEnabled     bool
	rxEnabled     bool
	listeners     []func(Status)

	log logBuffer
}

// New creates a disconnected transport. driver may be nil when only the
// virtual device is used.
func New(driver Driver, opts Options, settings model.SerialSettings, logger *zap.Logger) *Transport {
	def := DefaultOptions()
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = def.FlushInterval
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = def.MaxEntries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Transport{
		driver:     driver,
		opts:       opts,
		logger:     logger,
		state:      StateDisconnected,
		settings:   settings,
		simulation: opts.Simulation,
		txEnabled:  opts.TXEnabled,
		rxEnabled:  opts.RXEnabled,
	}
	t.log.init(opts.FlushInterval, opts.MaxEntries, t.Flush)

	if driver != nil {
		driver.SetReceiveHandler(func(data []byte) {
			t.Ingest(string(data), model.DirectionRX, false)
		})
	}
	return t
}

// OnStateChange registers a callback for connection state transitions
func (t *Transport) OnStateChange(fn func(Status)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Status returns the current connection snapshot
func (t *Transport) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

func (t *Transport) statusLocked() Status {
	return Status{
		State:         t.state,
		Device:        t.device,
		Selected:      t.selected,
		LastConnected: t.lastConnected,
		LastError:     t.lastError,
		Simulation:    t.simulation,
		TXEnabled:     t.txEnabled,
		RXEnabled:     t.rxEnabled,
	}
}

// transition applies fn under the lock and notifies listeners afterwards
func (t *Transport) transition(fn func()) {
	t.mu.Lock()
	fn()
	status := t.statusLocked()
	listeners := t.listeners
	t.mu.Unlock()

	for _, l := range listeners {
		l(status)
	}
}

// IsConnected reports whether a link is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateConnected
}

// IsVirtual reports whether the open link is the simulated device
func (t *Transport) IsVirtual() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateConnected && t.device == VirtualDevice
}

// SetSimulation switches scan between hardware and the virtual device
func (t *Transport) SetSimulation(enabled bool) {
	t.transition(func() { t.simulation = enabled })
}

// SetFilters enables or disables non-forced TX and RX log entries
func (t *Transport) SetFilters(tx, rx bool) {
	t.transition(func() {
		t.txEnabled = tx
		t.rxEnabled = rx
	})
}

// UpdateSettings replaces the serial settings used by the next connect and by
// the line ending of every subsequent send
func (t *Transport) UpdateSettings(settings model.SerialSettings) {
	t.mu.Lock()
	t.settings = settings
	t.mu.Unlock()
}

// Select records the descriptor chosen in the device list
func (t *Transport) Select(descriptor string) {
	t.transition(func() { t.selected = descriptor })
}

// Scan lists candidate devices
func (t *Transport) Scan(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	sim := t.simulation
	t.mu.Unlock()

	if sim || t.driver == nil {
		return []string{VirtualDevice}, nil
	}
	return t.driver.Scan(ctx)
}

// Connect opens descriptor. A connect issued while another connect or a
// disconnect is pending fails with ErrConnectInProgress and never reaches the
// driver. An already open link is closed first.
func (t *Transport) Connect(ctx context.Context, descriptor string) error {
	t.mu.Lock()
	if t.state == StateConnecting || t.closing {
		t.mu.Unlock()
		return ErrConnectInProgress
	}
	previous, wasConnected := t.device, t.state == StateConnected
	settings := t.settings
	t.state = StateConnecting
	t.selected = descriptor
	t.lastError = ""
	status := t.statusLocked()
	listeners := t.listeners
	t.mu.Unlock()

	for _, l := range listeners {
		l(status)
	}

	if wasConnected && previous != VirtualDevice && t.driver != nil {
		if err := t.driver.Close(); err != nil {
			t.logger.Warn("Failed to close previous link", zap.String("device", previous), zap.Error(err))
		}
	}

	err := t.open(ctx, descriptor, settings)
	if err != nil {
		cerr := &ConnectionError{Device: descriptor, Err: err}
		t.transition(func() {
			t.state = StateDisconnected
			t.device = ""
			t.lastError = err.Error()
		})
		t.logger.Error("Connection failed", zap.String("device", descriptor), zap.Error(err))
		return cerr
	}

	t.transition(func() {
		t.state = StateConnected
		t.device = descriptor
		t.lastConnected = descriptor
	})
	t.logger.Info("Device connected",
		zap.String("device", descriptor),
		zap.Int("baud_rate", settings.BaudRate),
		zap.String("device_type", string(settings.DeviceType)))
	return nil
}

func (t *Transport) open(ctx context.Context, descriptor string, settings model.SerialSettings) error {
	if descriptor == "" {
		return errors.New("no device selected")
	}
	if descriptor == VirtualDevice {
		return sleep(ctx, t.opts.SimulatedLatency)
	}
	if t.driver == nil {
		return errors.New("no device driver available")
	}
	return t.driver.Open(ctx, model.PortName(descriptor), settings)
}

// Disconnect closes the link. It is a no-op when nothing is connected or a
// disconnect is already closing the link.
func (t *Transport) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	switch {
	case t.state == StateDisconnected, t.closing:
		t.mu.Unlock()
		return nil
	case t.state == StateConnecting:
		t.mu.Unlock()
		return ErrConnectInProgress
	}
	device := t.device
	t.closing = true
	t.mu.Unlock()

	var closeErr error
	if device != VirtualDevice && t.driver != nil {
		closeErr = t.driver.Close()
	}

	t.transition(func() {
		t.state = StateDisconnected
		t.closing = false
		t.device = ""
		if closeErr != nil {
			t.lastError = closeErr.Error()
		}
	})
	if closeErr != nil {
		t.logger.Warn("Close reported an error", zap.String("device", device), zap.Error(closeErr))
		return closeErr
	}
	t.logger.Info("Device disconnected", zap.String("device", device))
	return nil
}

// Send transmits one command with the configured line ending. The command is
// logged as TX once the write succeeded.
func (t *Transport) Send(ctx context.Context, payload string) error {
	t.mu.Lock()
	if t.state != StateConnected {
		t.mu.Unlock()
		return ErrNotConnected
	}
	device := t.device
	ending := t.settings.LineEnding
	t.mu.Unlock()

	command := strings.TrimRight(payload, "\r\n")
	wire := command + ending.Terminator()

	if device == VirtualDevice {
		t.Ingest(command, model.DirectionTX, true)
		time.AfterFunc(t.opts.AckDelay, func() {
			t.Ingest("[SIM] ACK "+command, model.DirectionRX, true)
		})
		return nil
	}

	if err := t.driver.Write(ctx, []byte(wire)); err != nil {
		t.logger.Warn("Write failed", zap.String("command", command), zap.Error(err))
		return &SendError{Command: command, Err: err}
	}
	t.Ingest(command, model.DirectionTX, true)
	return nil
}

// port returns the short name used to tag log entries
func (t *Transport) port() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.device != "" {
		return model.PortName(t.device)
	}
	return model.PortName(t.selected)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
