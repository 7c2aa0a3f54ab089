// internal/discovery/scanner.go
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"ic-control/internal/model"
)

var (
	// ErrUnknownScanner is returned for a scanner type that was never registered
	ErrUnknownScanner = errors.New("scanner type not found")
	// ErrScannerUnavailable is returned when the scanner's backend is missing
	ErrScannerUnavailable = errors.New("scanner not available")
)

// DeviceScanner finds one kind of bench adapter
type DeviceScanner interface {
	Scan(ctx context.Context) ([]*DiscoveredDevice, error)
	GetScannerType() string
	IsAvailable() bool
}

// DiscoveredDevice represents a discovered adapter
type DiscoveredDevice struct {
	Port         string           `json:"port"`
	Label        string           `json:"label,omitempty"`
	DeviceType   model.DeviceType `json:"device_type"`
	VendorID     string           `json:"vendor_id,omitempty"`
	ProductID    string           `json:"product_id,omitempty"`
	SerialNumber string           `json:"serial_number,omitempty"`
	Product      string           `json:"product,omitempty"`
}

// Descriptor renders the device as the connectable string shown to users.
// The part before " (" is the port name the transport opens.
func (d *DiscoveredDevice) Descriptor() string {
	if d.Label == "" {
		return d.Port
	}
	return fmt.Sprintf("%s (%s)", d.Port, d.Label)
}

// IDLabel formats a vendor/product pair, tagging FTDI parts
func IDLabel(vid, pid string) string {
	vid, pid = strings.ToUpper(vid), strings.ToUpper(pid)
	if vid == "0403" {
		return fmt.Sprintf("FTDI VID:%s PID:%s", vid, pid)
	}
	return fmt.Sprintf("VID:%s PID:%s", vid, pid)
}

// ScannerManager manages all device scanners
type ScannerManager struct {
	scanners map[string]DeviceScanner
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{
		scanners: make(map[string]DeviceScanner),
		logger:   logger,
	}
}

// RegisterScanner registers a device scanner
func (sm *ScannerManager) RegisterScanner(scanner DeviceScanner) {
	scannerType := scanner.GetScannerType()
	sm.scanners[scannerType] = scanner
	sm.logger.Info("Scanner registered", zap.String("type", scannerType))
}

func (sm *ScannerManager) types() []string {
	types := make([]string, 0, len(sm.scanners))
	for t := range sm.scanners {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ScanAll runs every available scanner in name order. A failing scanner is
// logged and skipped.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]*DiscoveredDevice, error) {
	var allDevices []*DiscoveredDevice

	for _, scannerType := range sm.types() {
		if err := ctx.Err(); err != nil {
			return allDevices, err
		}

		scanner := sm.scanners[scannerType]
		if !scanner.IsAvailable() {
			sm.logger.Debug("Scanner not available, skipping", zap.String("type", scannerType))
			continue
		}

		devices, err := scanner.Scan(ctx)
		if err != nil {
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}

		allDevices = append(allDevices, devices...)
		sm.logger.Info("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("devices_found", len(devices)),
		)
	}

	return allDevices, nil
}

// ScanByType scans specific scanner type
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*DiscoveredDevice, error) {
	scanner, exists := sm.scanners[scannerType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScanner, scannerType)
	}

	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("%w: %s", ErrScannerUnavailable, scannerType)
	}

	return scanner.Scan(ctx)
}

// GetAvailableScanners returns list of available scanner types
func (sm *ScannerManager) GetAvailableScanners() []string {
	var available []string
	for _, scannerType := range sm.types() {
		if sm.scanners[scannerType].IsAvailable() {
			available = append(available, scannerType)
		}
	}
	return available
}

// Descriptors scans everything and returns the connectable strings, deduplicated
func (sm *ScannerManager) Descriptors(ctx context.Context) ([]string, error) {
	devices, err := sm.ScanAll(ctx)
	seen := make(map[string]bool, len(devices))
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		desc := d.Descriptor()
		if seen[desc] {
			continue
		}
		seen[desc] = true
		out = append(out, desc)
	}
	return out, err
}
