package protocol

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"ic-control/internal/model"
)

type fakeLink struct {
	statsRecorder
	mu      sync.Mutex
	reads   [][]byte
	writes  [][]byte
	open    bool
	openErr error
	closed  int
}

func (f *fakeLink) Open(context.Context) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.mu.Lock()
	f.open = true
	f.mu.Unlock()
	return nil
}

func (f *fakeLink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.closed++
	return nil
}

func (f *fakeLink) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeLink) Write(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakeLink) Read(ctx context.Context, _ int) ([]byte, error) {
	f.mu.Lock()
	if len(f.reads) > 0 {
		data := f.reads[0]
		f.reads = f.reads[1:]
		f.mu.Unlock()
		return data, nil
	}
	f.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return nil, nil
	}
}

func (f *fakeLink) GetDeviceType() model.DeviceType { return model.DeviceTypeSerial }

func (f *fakeLink) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type received struct {
	mu     sync.Mutex
	chunks []string
}

func (r *received) add(b []byte) {
	r.mu.Lock()
	r.chunks = append(r.chunks, string(b))
	r.mu.Unlock()
}

func (r *received) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.chunks...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBridgeDeliversReads(t *testing.T) {
	tests := []struct {
		name       string
		deviceType model.DeviceType
		reads      [][]byte
		want       []string
	}{
		{"serial passes text", model.DeviceTypeSerial, [][]byte{[]byte("OK\n"), []byte("RREG 0x01 = 0x10")}, []string{"OK\n", "RREG 0x01 = 0x10"}},
		{"ft260 renders hex", model.DeviceTypeFT260, [][]byte{{0xDE, 0xAD, 0x01}}, []string{"[HID] dead01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := &fakeLink{reads: tt.reads}
			b := NewBridgeWithFactory(nil, func(string, model.SerialSettings) (Link, error) { return link, nil }, zap.NewNop())
			var got received
			b.SetReceiveHandler(got.add)

			settings := model.DefaultSerialSettings()
			settings.DeviceType = tt.deviceType
			if err := b.Open(context.Background(), "COM3", settings); err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			waitFor(t, func() bool { return len(got.get()) == len(tt.want) })

			if err := b.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got.get()); diff != "" {
				t.Errorf("received mismatch (-want +got):\n%s", diff)
			}
			if link.closeCount() != 1 {
				t.Errorf("link closed %d times, want 1", link.closeCount())
			}
		})
	}
}

func TestBridgeReopenClosesPrevious(t *testing.T) {
	var links []*fakeLink
	b := NewBridgeWithFactory(nil, func(string, model.SerialSettings) (Link, error) {
		l := &fakeLink{}
		links = append(links, l)
		return l, nil
	}, zap.NewNop())

	settings := model.DefaultSerialSettings()
	if err := b.Open(context.Background(), "COM3", settings); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := b.Open(context.Background(), "COM4", settings); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if links[0].closeCount() != 1 {
		t.Errorf("first link closed %d times, want 1", links[0].closeCount())
	}

	if err := b.Write(context.Background(), []byte("vio 1\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(links[0].writes) != 0 || len(links[1].writes) != 1 {
		t.Errorf("writes went to the wrong link: %d/%d", len(links[0].writes), len(links[1].writes))
	}
	b.Close()
}

func TestBridgeOpenFailure(t *testing.T) {
	openErr := errors.New("access denied")
	b := NewBridgeWithFactory(nil, func(string, model.SerialSettings) (Link, error) {
		return &fakeLink{openErr: openErr}, nil
	}, zap.NewNop())

	if err := b.Open(context.Background(), "COM3", model.DefaultSerialSettings()); !errors.Is(err, openErr) {
		t.Fatalf("Open() error = %v, want %v", err, openErr)
	}
	if err := b.Write(context.Background(), []byte("x")); err == nil {
		t.Error("Write() after failed open expected error")
	}
	if _, ok := b.Stats(); ok {
		t.Error("Stats() reported a link after failed open")
	}
}

type stubScanner []string

func (s stubScanner) Descriptors(context.Context) ([]string, error) { return s, nil }

func TestBridgeScan(t *testing.T) {
	b := NewBridge(stubScanner{"COM3 (FTDI VID:0403 PID:6001)"}, DefaultDefaults(), zap.NewNop())
	got, err := b.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if diff := cmp.Diff([]string{"COM3 (FTDI VID:0403 PID:6001)"}, got); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}
