package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestScanReportsReachableBridges(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	// a listener closed right away gives a port nobody answers on
	dead, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	deadAddr := dead.Addr().String()
	dead.Close()

	s := NewScanner(zap.NewNop(), []string{deadAddr, ln.Addr().String()}, 200*time.Millisecond)
	if !s.IsAvailable() {
		t.Fatal("IsAvailable() = false with bridges configured")
	}

	devices, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Scan() found %d devices, want 1", len(devices))
	}
	if got, want := devices[0].Descriptor(), "tcp://"+ln.Addr().String()+" (TCP bridge)"; got != want {
		t.Errorf("Descriptor() = %q, want %q", got, want)
	}
}

func TestNoBridgesUnavailable(t *testing.T) {
	if NewScanner(zap.NewNop(), nil, 0).IsAvailable() {
		t.Error("IsAvailable() = true without bridges")
	}
}
