// internal/protocol/bridge.go
package protocol

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ic-control/internal/model"
)

const (
	readChunk    = 1024
	pollInterval = 10 * time.Millisecond
	errorBackoff = 100 * time.Millisecond
)

// Scanner lists connectable descriptors
type Scanner interface {
	Descriptors(ctx context.Context) ([]string, error)
}

// LinkFactory builds an unopened link
type LinkFactory func(port string, settings model.SerialSettings) (Link, error)

// Bridge drives one link at a time and pumps inbound bytes to the receive handler
type Bridge struct {
	factory LinkFactory
	scanner Scanner
	logger  *zap.Logger

	mu      sync.Mutex
	link    Link
	hid     bool
	handler func([]byte)
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewBridge creates a bridge building links with CreateLink
func NewBridge(scanner Scanner, defaults Defaults, logger *zap.Logger) *Bridge {
	factory := func(port string, settings model.SerialSettings) (Link, error) {
		return CreateLink(port, settings, defaults, logger)
	}
	return NewBridgeWithFactory(scanner, factory, logger)
}

// NewBridgeWithFactory creates a bridge with a custom link factory
func NewBridgeWithFactory(scanner Scanner, factory LinkFactory, logger *zap.Logger) *Bridge {
	return &Bridge{
		factory: factory,
		scanner: scanner,
		logger:  logger.With(zap.String("component", "bridge")),
	}
}

// Scan delegates to the scanner
func (b *Bridge) Scan(ctx context.Context) ([]string, error) {
	if b.scanner == nil {
		return nil, nil
	}
	return b.scanner.Descriptors(ctx)
}

// Open closes any current link, opens a new one and starts the reader
func (b *Bridge) Open(ctx context.Context, port string, settings model.SerialSettings) error {
	if err := b.Close(); err != nil {
		b.logger.Warn("Failed to close previous link", zap.Error(err))
	}

	link, err := b.factory(port, settings)
	if err != nil {
		return err
	}
	if err := link.Open(ctx); err != nil {
		return err
	}

	readCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	b.mu.Lock()
	b.link = link
	b.hid = settings.DeviceType == model.DeviceTypeFT260
	b.cancel = cancel
	b.done = done
	b.mu.Unlock()

	go b.readLoop(readCtx, link, done)

	b.logger.Info("Link opened",
		zap.String("port", port),
		zap.String("device_type", string(link.GetDeviceType())),
	)
	return nil
}

// Close stops the reader and closes the link
func (b *Bridge) Close() error {
	b.mu.Lock()
	link, cancel, done := b.link, b.cancel, b.done
	b.link, b.cancel, b.done = nil, nil, nil
	b.mu.Unlock()

	if link == nil {
		return nil
	}
	cancel()
	<-done
	return link.Close()
}

// Write sends data on the current link
func (b *Bridge) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	link := b.link
	b.mu.Unlock()

	if link == nil {
		return fmt.Errorf("device is not connected")
	}
	return link.Write(ctx, data)
}

// SetReceiveHandler sets the inbound data callback
func (b *Bridge) SetReceiveHandler(fn func([]byte)) {
	b.mu.Lock()
	b.handler = fn
	b.mu.Unlock()
}

// Stats returns the current link statistics
func (b *Bridge) Stats() (ProtocolStats, bool) {
	b.mu.Lock()
	link := b.link
	b.mu.Unlock()

	if link == nil {
		return ProtocolStats{}, false
	}
	return link.Stats(), true
}

func (b *Bridge) readLoop(ctx context.Context, link Link, done chan struct{}) {
	defer close(done)

	failing := false
	for {
		if ctx.Err() != nil {
			return
		}

		data, err := link.Read(ctx, readChunk)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !failing {
				b.logger.Warn("Link read failed", zap.Error(err))
				failing = true
			}
			sleepCtx(ctx, errorBackoff)
			continue
		}
		failing = false

		if len(data) > 0 {
			b.deliver(data)
		}
		sleepCtx(ctx, pollInterval)
	}
}

func (b *Bridge) deliver(data []byte) {
	b.mu.Lock()
	fn, hid := b.handler, b.hid
	b.mu.Unlock()

	if fn == nil {
		return
	}
	fn(FormatInbound(data, hid))
}

// FormatInbound renders HID reports as "[HID] <hex>" and passes other data through
func FormatInbound(data []byte, hid bool) []byte {
	if !hid {
		return data
	}
	return []byte("[HID] " + hex.EncodeToString(data))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
