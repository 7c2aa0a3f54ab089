// internal/model/serial.go
package model

import "strings"

// DeviceType selects the physical bridge used to reach the IC
type DeviceType string

const (
	DeviceTypeSerial  DeviceType = "serialport"
	DeviceTypeFT2232D DeviceType = "ft2232d"
	DeviceTypeFT2232H DeviceType = "ft2232h"
	DeviceTypeFT260   DeviceType = "ft260"
	DeviceTypeTCP     DeviceType = "tcp"
)

// IsFTDI reports whether the device type is an FT2232 channel
func (d DeviceType) IsFTDI() bool {
	return d == DeviceTypeFT2232D || d == DeviceTypeFT2232H
}

// Valid reports whether d is one of the supported bridge types
func (d DeviceType) Valid() bool {
	switch d {
	case DeviceTypeSerial, DeviceTypeFT2232D, DeviceTypeFT2232H, DeviceTypeFT260, DeviceTypeTCP:
		return true
	}
	return false
}

// LineEnding is the terminator appended to every transmitted command
type LineEnding string

const (
	LineEndingNone LineEnding = "none"
	LineEndingLF   LineEnding = "lf"
	LineEndingCRLF LineEnding = "crlf"
	LineEndingCR   LineEnding = "cr"
)

// Terminator returns the byte sequence for the line ending
func (l LineEnding) Terminator() string {
	switch l {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return ""
	}
}

// Valid reports whether l is a known line ending
func (l LineEnding) Valid() bool {
	switch l {
	case LineEndingNone, LineEndingLF, LineEndingCRLF, LineEndingCR:
		return true
	}
	return false
}

// SerialSettings holds the link parameters chosen by the user
type SerialSettings struct {
	BaudRate    int        `json:"baud_rate" mapstructure:"baud_rate"`
	Parity      string     `json:"parity" mapstructure:"parity"`
	StopBits    int        `json:"stop_bits" mapstructure:"stop_bits"`
	DataBits    int        `json:"data_bits" mapstructure:"data_bits"`
	FlowControl string     `json:"flow_control" mapstructure:"flow_control"`
	LineEnding  LineEnding `json:"line_ending" mapstructure:"line_ending"`
	DeviceType  DeviceType `json:"device_type" mapstructure:"device_type"`

	// FTDI channel/mode, only read for ft2232d/ft2232h
	FTDIChannel string `json:"ftdi_channel" mapstructure:"ftdi_channel"`
	FTDIMode    string `json:"ftdi_mode" mapstructure:"ftdi_mode"`

	// FT260 mode and I2C speed in kHz
	FT260Mode     string `json:"ft260_mode" mapstructure:"ft260_mode"`
	FT260I2CSpeed int    `json:"ft260_i2c_speed" mapstructure:"ft260_i2c_speed"`
}

// DefaultSerialSettings returns the settings used before anything was persisted
func DefaultSerialSettings() SerialSettings {
	return SerialSettings{
		BaudRate:      9600,
		Parity:        "none",
		StopBits:      1,
		DataBits:      8,
		FlowControl:   "none",
		LineEnding:    LineEndingLF,
		DeviceType:    DeviceTypeSerial,
		FTDIChannel:   "A",
		FTDIMode:      "uart",
		FT260Mode:     "i2c",
		FT260I2CSpeed: 100,
	}
}

// PortName strips the " (VID:... PID:...)" label that scanning appends to a port
func PortName(descriptor string) string {
	if i := strings.Index(descriptor, " ("); i >= 0 {
		return descriptor[:i]
	}
	return descriptor
}
