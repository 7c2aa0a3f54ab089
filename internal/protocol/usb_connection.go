// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"ic-control/internal/model"
)

// FTDI vendor requests
const (
	ftdiReset         = 0x00
	ftdiSetBaudRate   = 0x03
	ftdiSetData       = 0x04
	ftdiSetLatency    = 0x09
	ftdiStatusBytes   = 2
	ftdiBaseClock     = 3000000
	ftdiVendorOutType = gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice
)

// USBConnection implements Link for FT2232 channels and the FT260 HID bridge
type USBConnection struct {
	statsRecorder
	config     *USBConfig
	deviceType model.DeviceType
	ctx        *gousb.Context
	device     *gousb.Device
	cfg        *gousb.Config
	intf       *gousb.Interface
	outEndpt   *gousb.OutEndpoint
	inEndpt    *gousb.InEndpoint
	logger     *zap.Logger
	mutex      sync.RWMutex
	isOpen     bool
}

// NewUSBConnection creates a new USB connection
func NewUSBConnection(config *USBConfig, deviceType model.DeviceType, logger *zap.Logger) *USBConnection {
	return &USBConnection{
		config:     config,
		deviceType: deviceType,
		logger: logger.With(
			zap.String("protocol", "usb"),
			zap.String("vendor_id", config.VendorID.String()),
			zap.String("product_id", config.ProductID.String()),
		),
	}
}

// Open claims the adapter interface and its endpoints
func (uc *USBConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}

	uc.logger.Info("Opening USB connection",
		zap.Int("interface", uc.config.Interface),
		zap.String("location", uc.config.Location),
	)

	uc.ctx = gousb.NewContext()
	device, err := uc.findAndOpenDevice()
	if err != nil {
		uc.release()
		return fmt.Errorf("failed to find USB device: %w", err)
	}
	uc.device = device

	if err := device.SetAutoDetach(true); err != nil {
		uc.logger.Warn("Kernel driver auto-detach unavailable", zap.Error(err))
	}

	uc.cfg, err = device.Config(1)
	if err != nil {
		uc.release()
		return fmt.Errorf("failed to select configuration: %w", err)
	}

	uc.intf, err = uc.cfg.Interface(uc.config.Interface, 0)
	if err != nil {
		uc.release()
		return fmt.Errorf("failed to claim interface %d: %w", uc.config.Interface, err)
	}

	uc.outEndpt, err = uc.intf.OutEndpoint(uc.config.OutEP)
	if err != nil {
		uc.release()
		return fmt.Errorf("failed to get out endpoint: %w", err)
	}

	uc.inEndpt, err = uc.intf.InEndpoint(uc.config.InEP)
	if err != nil {
		uc.logger.Warn("No in endpoint found", zap.Error(err))
		uc.inEndpt = nil
	}

	if !uc.config.HID {
		if err := uc.configureUART(); err != nil {
			uc.release()
			return err
		}
	}

	uc.isOpen = true
	uc.setConnected(true)
	uc.logger.Info("USB connection opened successfully")
	return nil
}

// configureUART resets the FTDI channel and programs 8N1 at the configured baud rate
func (uc *USBConnection) configureUART() error {
	index := uint16(uc.config.Interface + 1)
	if _, err := uc.device.Control(ftdiVendorOutType, ftdiReset, 0, index, nil); err != nil {
		return fmt.Errorf("failed to reset FTDI channel: %w", err)
	}

	value, hi := FTDIBaudDivisor(uc.config.BaudRate)
	if _, err := uc.device.Control(ftdiVendorOutType, ftdiSetBaudRate, value, hi<<8|index, nil); err != nil {
		return fmt.Errorf("failed to set baud rate: %w", err)
	}
	if _, err := uc.device.Control(ftdiVendorOutType, ftdiSetData, 8, index, nil); err != nil {
		return fmt.Errorf("failed to set line properties: %w", err)
	}
	if _, err := uc.device.Control(ftdiVendorOutType, ftdiSetLatency, 2, index, nil); err != nil {
		uc.logger.Warn("Failed to set latency timer", zap.Error(err))
	}
	return nil
}

// FTDIBaudDivisor encodes baud for the SIO_SET_BAUD_RATE request against the
// 3 MHz base clock. It returns wValue and the high byte that goes in wIndex.
func FTDIBaudDivisor(baud int) (uint16, uint16) {
	if baud <= 0 {
		baud = 9600
	}
	fracCode := [8]uint32{0, 3, 2, 4, 1, 5, 6, 7}

	divisor := uint32(ftdiBaseClock*8) / uint32(baud) // in eighths
	var encoded uint32
	switch divisor {
	case 0, 1, 2, 3, 4, 5, 6, 7, 8:
		encoded = 0
	case 12:
		encoded = 1
	default:
		encoded = (divisor >> 3) | (fracCode[divisor&7] << 14)
	}
	return uint16(encoded & 0xFFFF), uint16(encoded >> 16)
}

// release closes whatever Open managed to acquire
func (uc *USBConnection) release() {
	if uc.intf != nil {
		uc.intf.Close()
		uc.intf = nil
	}
	if uc.cfg != nil {
		uc.cfg.Close()
		uc.cfg = nil
	}
	if uc.device != nil {
		uc.device.Close()
		uc.device = nil
	}
	if uc.ctx != nil {
		uc.ctx.Close()
		uc.ctx = nil
	}
	uc.outEndpt = nil
	uc.inEndpt = nil
}

// Close releases the interface and the USB context
func (uc *USBConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen {
		return nil
	}

	uc.release()
	uc.isOpen = false
	uc.setConnected(false)

	uc.logger.Info("USB connection closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (uc *USBConnection) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.isOpen && uc.device != nil && uc.outEndpt != nil
}

// Write writes data to the adapter. HID writes are prefixed with report ID 0.
func (uc *USBConnection) Write(ctx context.Context, data []byte) error {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.outEndpt == nil {
		return fmt.Errorf("USB connection not open")
	}

	payload := data
	if uc.config.HID {
		payload = append([]byte{0}, data...)
	}

	writeCtx, cancel := context.WithTimeout(ctx, uc.config.Timeout)
	defer cancel()

	startTime := time.Now()
	n, err := uc.outEndpt.WriteContext(writeCtx, payload)
	if err != nil {
		uc.recordError()
		return fmt.Errorf("failed to write to USB device: %w", err)
	}
	if n != len(payload) {
		uc.recordError()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(payload))
	}

	uc.recordWrite(len(data), time.Since(startTime))
	uc.logger.Debug("USB write completed", zap.Int("bytes", len(data)))
	return nil
}

// Read polls the in endpoint for up to 100 ms
func (uc *USBConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.inEndpt == nil {
		return nil, fmt.Errorf("USB connection not open or no in endpoint")
	}

	size := maxBytes
	if mps := uc.inEndpt.Desc.MaxPacketSize; mps > 0 && size < mps {
		size = mps
	}
	buffer := make([]byte, size)

	readCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	n, err := uc.inEndpt.ReadContext(readCtx, buffer)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, gousb.TransferTimedOut) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		uc.recordError()
		return nil, fmt.Errorf("failed to read from USB device: %w", err)
	}

	data := buffer[:n]
	if !uc.config.HID {
		data = StripFTDIStatus(data, uc.inEndpt.Desc.MaxPacketSize)
	}
	uc.recordRead(len(data))
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

// StripFTDIStatus removes the two modem status bytes that lead every FTDI bulk packet
func StripFTDIStatus(data []byte, packetSize int) []byte {
	if packetSize <= ftdiStatusBytes {
		packetSize = 64
	}
	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		end := packetSize
		if end > len(data) {
			end = len(data)
		}
		if end > ftdiStatusBytes {
			out = append(out, data[ftdiStatusBytes:end]...)
		}
		data = data[end:]
	}
	return out
}

// GetDeviceType returns the device type
func (uc *USBConnection) GetDeviceType() model.DeviceType {
	return uc.deviceType
}

// findAndOpenDevice opens the device matching VID/PID and, when set, the bus location
func (uc *USBConnection) findAndOpenDevice() (*gousb.Device, error) {
	bus, addr, hasLocation := ParseLocation(uc.config.Location)

	devices, err := uc.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if desc.Vendor != uc.config.VendorID || desc.Product != uc.config.ProductID {
			return false
		}
		return !hasLocation || (desc.Bus == bus && desc.Address == addr)
	})
	if len(devices) == 0 {
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
		}
		return nil, fmt.Errorf("USB device not found (VID: %s, PID: %s)", uc.config.VendorID, uc.config.ProductID)
	}

	for _, extra := range devices[1:] {
		extra.Close()
	}
	if len(devices) > 1 {
		uc.logger.Warn("Multiple matching USB devices found, using first one")
	}
	return devices[0], nil
}

// ParseLocation parses "usb:<bus>-<address>" or "<bus>-<address>"
func ParseLocation(s string) (bus, addr int, ok bool) {
	s = strings.TrimPrefix(s, "usb:")
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	b, err1 := strconv.Atoi(parts[0])
	a, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return b, a, true
}

// FormatLocation renders a bus location as used in port names
func FormatLocation(bus, addr int) string {
	return fmt.Sprintf("usb:%d-%d", bus, addr)
}
