// internal/protocol/factory.go
package protocol

import (
	"fmt"

	"go.uber.org/zap"

	"ic-control/internal/model"
)

// UnsupportedDeviceError is returned for a device type no link implements
type UnsupportedDeviceError struct {
	DeviceType model.DeviceType
}

func (e *UnsupportedDeviceError) Error() string {
	return fmt.Sprintf("unsupported device type: %s", e.DeviceType)
}

// FTDI interface and bulk endpoint numbers per channel
var ftdiChannels = map[string]struct{ intf, in, out int }{
	"A": {0, 1, 2},
	"B": {1, 3, 4},
}

// CreateLink builds an unopened link for the port and settings
func CreateLink(port string, settings model.SerialSettings, defaults Defaults, logger *zap.Logger) (Link, error) {
	switch settings.DeviceType {
	case model.DeviceTypeSerial, "":
		if port == "" {
			return nil, fmt.Errorf("port name is required for serial mode")
		}
		return NewSerialConnection(&SerialConfig{
			Port:        port,
			BaudRate:    settings.BaudRate,
			DataBits:    settings.DataBits,
			StopBits:    settings.StopBits,
			Parity:      settings.Parity,
			FlowControl: settings.FlowControl,
			ReadTimeout: defaults.SerialReadTimeout,
		}, logger), nil

	case model.DeviceTypeFT2232D, model.DeviceTypeFT2232H:
		ch, ok := ftdiChannels[settings.FTDIChannel]
		if !ok {
			ch = ftdiChannels["A"]
		}
		if settings.FTDIMode != "" && settings.FTDIMode != "uart" {
			logger.Warn("FTDI mode not supported by the vendor link, using uart", zap.String("ftdi_mode", settings.FTDIMode))
		}
		cfg := &USBConfig{
			VendorID:  VendorFTDI,
			ProductID: ProductFT2232,
			Interface: ch.intf,
			InEP:      ch.in,
			OutEP:     ch.out,
			Timeout:   defaults.USBTimeout,
			BaudRate:  settings.BaudRate,
		}
		if _, _, ok := ParseLocation(port); ok {
			cfg.Location = port
		}
		return NewUSBConnection(cfg, settings.DeviceType, logger), nil

	case model.DeviceTypeFT260:
		cfg := &USBConfig{
			VendorID:  VendorFTDI,
			ProductID: ProductFT260,
			Interface: 0,
			InEP:      1,
			OutEP:     2,
			Timeout:   defaults.USBTimeout,
			HID:       true,
		}
		if _, _, ok := ParseLocation(port); ok {
			cfg.Location = port
		}
		return NewUSBConnection(cfg, settings.DeviceType, logger), nil

	case model.DeviceTypeTCP:
		addr := TCPAddress(port)
		if addr == "" {
			return nil, fmt.Errorf("address is required for tcp mode")
		}
		return NewTCPConnection(&TCPConfig{
			Address:        addr,
			KeepAlive:      defaults.TCPKeepAlive,
			ConnectTimeout: defaults.TCPConnectTimeout,
			ReadTimeout:    defaults.SerialReadTimeout,
			WriteTimeout:   defaults.TCPWriteTimeout,
		}, logger), nil
	}
	return nil, &UnsupportedDeviceError{DeviceType: settings.DeviceType}
}
