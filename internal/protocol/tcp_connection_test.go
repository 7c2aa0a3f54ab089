package protocol

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestTCPConnectionRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// echo one line back with an ACK prefix
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			return
		}
		conn.Write([]byte("ACK " + line))
		time.Sleep(500 * time.Millisecond)
	}()

	tc := NewTCPConnection(&TCPConfig{
		Address:        TCPAddress("tcp://" + ln.Addr().String()),
		ConnectTimeout: time.Second,
		ReadTimeout:    50 * time.Millisecond,
		WriteTimeout:   time.Second,
	}, zap.NewNop())

	ctx := context.Background()
	if err := tc.Open(ctx); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer tc.Close()

	if err := tc.Write(ctx, []byte("vio 1\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var got []byte
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < len("ACK vio 1\n") && time.Now().Before(deadline) {
		data, err := tc.Read(ctx, 64)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		got = append(got, data...)
	}
	if string(got) != "ACK vio 1\n" {
		t.Errorf("Read() = %q, want %q", got, "ACK vio 1\n")
	}

	// nothing more pending, the poll times out quietly
	data, err := tc.Read(ctx, 64)
	if err != nil || data != nil {
		t.Errorf("idle Read() = %q, %v, want nil, nil", data, err)
	}

	stats := tc.Stats()
	if stats.BytesWritten != 6 || !stats.IsConnected {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestTCPConnectionNotOpen(t *testing.T) {
	tc := NewTCPConnection(&TCPConfig{Address: "127.0.0.1:1"}, zap.NewNop())
	if err := tc.Write(context.Background(), []byte("x")); err == nil {
		t.Error("Write() on closed connection expected error")
	}
	if _, err := tc.Read(context.Background(), 1); err == nil {
		t.Error("Read() on closed connection expected error")
	}
}
