// internal/discovery/usb/scanner.go
package usb

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"ic-control/internal/discovery"
	"ic-control/internal/protocol"
)

// Scanner finds vendor-mode FTDI adapters on the USB bus
type Scanner struct {
	logger       *zap.Logger
	knownDevices *DeviceDatabase
}

// NewScanner creates a new USB scanner
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{
		logger:       logger.With(zap.String("scanner", "usb")),
		knownDevices: NewDeviceDatabase(),
	}
}

// GetScannerType returns scanner type identifier
func (s *Scanner) GetScannerType() string {
	return "usb"
}

// IsAvailable checks if libusb enumeration is supported on this OS
func (s *Scanner) IsAvailable() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "windows":
		return true
	default:
		s.logger.Warn("USB scanning support unknown for OS", zap.String("os", runtime.GOOS))
		return false
	}
}

// Scan enumerates descriptors only. No device is opened, so no permissions
// beyond bus enumeration are needed.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	startTime := time.Now()

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			s.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	var discovered []*discovery.DiscoveredDevice
	_, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if ctx.Err() != nil {
			return false
		}
		if d := s.deviceFromDesc(desc); d != nil {
			discovered = append(discovered, d)
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("USB scan aborted: %w", err)
	}

	s.logger.Info("USB scan completed",
		zap.Int("devices_found", len(discovered)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return discovered, nil
}

// deviceFromDesc maps a known adapter descriptor to a discovered device
func (s *Scanner) deviceFromDesc(desc *gousb.DeviceDesc) *discovery.DiscoveredDevice {
	info, ok := s.knownDevices.Identify(desc)
	if !ok {
		return nil
	}

	vid, pid := fmt.Sprintf("%04X", uint16(desc.Vendor)), fmt.Sprintf("%04X", uint16(desc.Product))
	s.logger.Debug("Found adapter",
		zap.String("model", info.Model),
		zap.String("vendor_id", vid),
		zap.String("product_id", pid),
	)

	return &discovery.DiscoveredDevice{
		Port:       protocol.FormatLocation(desc.Bus, desc.Address),
		Label:      fmt.Sprintf("%s VID:%s PID:%s", info.Model, vid, pid),
		DeviceType: info.DeviceType,
		VendorID:   vid,
		ProductID:  pid,
		Product:    info.Model,
	}
}
