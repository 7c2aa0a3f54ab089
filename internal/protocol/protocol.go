// internal/protocol/protocol.go
package protocol

import (
	"context"
	"sync"
	"time"

	"ic-control/internal/model"
)

// Link is one open byte channel to the bench adapter
type Link interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication. Read returns (nil, nil) when its poll interval
	// elapsed without data.
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context, maxBytes int) ([]byte, error)

	// Protocol information
	GetDeviceType() model.DeviceType
	Stats() ProtocolStats
}

// ProtocolStats provides link-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

// statsRecorder is embedded by every link
type statsRecorder struct {
	mu    sync.Mutex
	stats ProtocolStats
}

func (r *statsRecorder) Stats() ProtocolStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *statsRecorder) setConnected(v bool) {
	r.mu.Lock()
	r.stats.IsConnected = v
	if v {
		r.stats.LastActivity = time.Now()
	}
	r.mu.Unlock()
}

func (r *statsRecorder) recordWrite(n int, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesWritten += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
	if r.stats.AverageLatency == 0 {
		r.stats.AverageLatency = latency
	} else {
		r.stats.AverageLatency = (r.stats.AverageLatency + latency) / 2
	}
}

func (r *statsRecorder) recordRead(n int) {
	if n == 0 {
		return
	}
	r.mu.Lock()
	r.stats.BytesRead += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
	r.mu.Unlock()
}

func (r *statsRecorder) recordError() {
	r.mu.Lock()
	r.stats.ErrorCount++
	r.mu.Unlock()
}
