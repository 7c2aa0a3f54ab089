// internal/discovery/tcp/scanner.go
package tcp

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"ic-control/internal/discovery"
	"ic-control/internal/model"
)

// Scanner probes configured network serial bridges
type Scanner struct {
	logger      *zap.Logger
	bridges     []string
	connTimeout time.Duration
}

// NewScanner creates a scanner for the given host:port bridges
func NewScanner(logger *zap.Logger, bridges []string, connTimeout time.Duration) *Scanner {
	if connTimeout <= 0 {
		connTimeout = time.Second
	}
	return &Scanner{
		logger:      logger.With(zap.String("scanner", "tcp")),
		bridges:     bridges,
		connTimeout: connTimeout,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "tcp"
}

// IsAvailable reports whether any bridge is configured
func (s *Scanner) IsAvailable() bool {
	return len(s.bridges) > 0
}

// Scan dials every bridge concurrently and reports the reachable ones in
// configuration order
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	reachable := make([]bool, len(s.bridges))

	var wg sync.WaitGroup
	for i, addr := range s.bridges {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			dialer := net.Dialer{Timeout: s.connTimeout}
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				s.logger.Debug("Bridge unreachable", zap.String("address", addr), zap.Error(err))
				return
			}
			conn.Close()
			reachable[i] = true
		}(i, addr)
	}
	wg.Wait()

	var discovered []*discovery.DiscoveredDevice
	for i, addr := range s.bridges {
		if !reachable[i] {
			continue
		}
		discovered = append(discovered, &discovery.DiscoveredDevice{
			Port:       "tcp://" + addr,
			Label:      "TCP bridge",
			DeviceType: model.DeviceTypeTCP,
		})
	}

	s.logger.Info("TCP scan completed", zap.Int("devices_found", len(discovered)))
	return discovered, ctx.Err()
}
