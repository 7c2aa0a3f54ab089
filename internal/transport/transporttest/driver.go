// internal/transport/transporttest/driver.go

// Package transporttest provides an in-memory device driver for tests.
package transporttest

import (
	"context"
	"sync"

	"ic-control/internal/model"
)

// Driver records every call and lets tests inject failures and inbound bytes
type Driver struct {
	Ports     []string
	OpenErr   error
	CloseErr  error
	WriteErrs map[int]error // keyed by 0-based write index

	// Gate, when non-nil, blocks Open until it is closed
	Gate      chan struct{}
	// CloseGate, when non-nil, blocks Close until it is closed
	CloseGate chan struct{}

	// OnWrite is called after each successful write
	OnWrite func(data string)

	mu       sync.Mutex
	opens    int
	closes   int
	writes   []string
	attempts int
	lastPort string
	settings model.SerialSettings
	handler  func([]byte)
	started  chan struct{}
	closing  chan struct{}
}

// NewDriver returns a driver with no ports
func NewDriver() *Driver {
	return &Driver{started: make(chan struct{}, 16), closing: make(chan struct{}, 16)}
}

func (d *Driver) Scan(ctx context.Context) ([]string, error) {
	return append([]string(nil), d.Ports...), nil
}

func (d *Driver) Open(ctx context.Context, port string, settings model.SerialSettings) error {
	d.mu.Lock()
	d.opens++
	d.lastPort = port
	d.settings = settings
	d.mu.Unlock()

	select {
	case d.started <- struct{}{}:
	default:
	}

	if d.Gate != nil {
		select {
		case <-d.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return d.OpenErr
}

func (d *Driver) Close() error {
	d.mu.Lock()
	d.closes++
	d.mu.Unlock()

	select {
	case d.closing <- struct{}{}:
	default:
	}

	if d.CloseGate != nil {
		<-d.CloseGate
	}
	return d.CloseErr
}

func (d *Driver) Write(ctx context.Context, data []byte) error {
	d.mu.Lock()
	i := d.attempts
	d.attempts++
	if err, ok := d.WriteErrs[i]; ok {
		d.mu.Unlock()
		return err
	}
	d.writes = append(d.writes, string(data))
	hook := d.OnWrite
	d.mu.Unlock()

	if hook != nil {
		hook(string(data))
	}
	return nil
}

func (d *Driver) SetReceiveHandler(fn func([]byte)) {
	d.mu.Lock()
	d.handler = fn
	d.mu.Unlock()
}

// Emit delivers inbound bytes as the hardware would
func (d *Driver) Emit(data string) {
	d.mu.Lock()
	fn := d.handler
	d.mu.Unlock()
	if fn != nil {
		fn([]byte(data))
	}
}

// OpenStarted is signalled each time Open is entered
func (d *Driver) OpenStarted() <-chan struct{} {
	return d.started
}

// CloseStarted is signalled each time Close is entered
func (d *Driver) CloseStarted() <-chan struct{} {
	return d.closing
}

// Opens returns the number of Open calls
func (d *Driver) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Closes returns the number of Close calls
func (d *Driver) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// Writes returns the successfully written payloads
func (d *Driver) Writes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.writes...)
}

// Attempts returns the number of Write calls, failed ones included
func (d *Driver) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

// LastPort returns the port passed to the most recent Open
func (d *Driver) LastPort() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastPort
}
