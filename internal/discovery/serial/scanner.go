// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"ic-control/internal/discovery"
	"ic-control/internal/model"
)

// PortLister enumerates the host's serial ports
type PortLister func() ([]*enumerator.PortDetails, error)

// Scanner implements serial port scanning
type Scanner struct {
	logger *zap.Logger
	list   PortLister
}

// NewScanner creates a serial scanner. A nil lister uses the OS enumerator.
func NewScanner(logger *zap.Logger, list PortLister) *Scanner {
	if list == nil {
		list = enumerator.GetDetailedPortsList
	}
	return &Scanner{
		logger: logger.With(zap.String("scanner", "serial")),
		list:   list,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable reports that serial enumeration exists on every platform
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan lists ports without opening them. USB ports get a VID/PID label.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	s.logger.Debug("Starting serial port scan")

	ports, err := s.list()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	discovered := make([]*discovery.DiscoveredDevice, 0, len(ports))
	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			return discovered, err
		}
		// COM1 is the motherboard UART unless it is USB-backed
		if port.Name == "COM1" && !port.IsUSB {
			continue
		}

		device := &discovery.DiscoveredDevice{
			Port:       port.Name,
			DeviceType: model.DeviceTypeSerial,
		}
		if port.IsUSB {
			device.VendorID = strings.ToUpper(port.VID)
			device.ProductID = strings.ToUpper(port.PID)
			device.SerialNumber = port.SerialNumber
			device.Product = port.Product
			device.Label = discovery.IDLabel(port.VID, port.PID)
		}
		discovered = append(discovered, device)
	}

	s.logger.Info("Serial scan completed", zap.Int("devices_found", len(discovered)))
	return discovered, nil
}
