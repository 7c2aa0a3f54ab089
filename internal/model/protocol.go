// internal/model/protocol.go
package model

import (
	"fmt"
	"strings"
)

// ProtocolKind names one of the mutually exclusive wire protocols
type ProtocolKind string

const (
	ProtocolRFFE ProtocolKind = "RFFE"
	ProtocolSPI  ProtocolKind = "SPI"
	ProtocolI3C  ProtocolKind = "I3C"
)

// ParseProtocolKind accepts the kind case-insensitively
func ParseProtocolKind(s string) (ProtocolKind, error) {
	switch kind := ProtocolKind(strings.ToUpper(strings.TrimSpace(s))); kind {
	case ProtocolRFFE, ProtocolSPI, ProtocolI3C:
		return kind, nil
	}
	return "", fmt.Errorf("unknown protocol: %q", s)
}

// RFFEParams configures the RFFE master
type RFFEParams struct {
	SlaveAddr uint `json:"slave_addr" mapstructure:"slave_addr"`
	ClockKHz  uint `json:"clock_khz" mapstructure:"clock_khz"`
	HSDR      bool `json:"hsdr" mapstructure:"hsdr"`
}

// SPIParams configures the SPI master. WriteWidth and ReadWidth are width
// selectors: 1 = one byte, 2 = two bytes, 3 = four bytes.
type SPIParams struct {
	ClockKHz      uint `json:"clock_khz" mapstructure:"clock_khz"`
	Select        uint `json:"select" mapstructure:"select"`
	SelPolarity   uint `json:"sel_polarity" mapstructure:"sel_polarity"`
	Mode          uint `json:"mode" mapstructure:"mode"`
	CmdWidthBits  uint `json:"cmd_width" mapstructure:"cmd_width"`
	AddrWidthBits uint `json:"addr_width" mapstructure:"addr_width"`
	WriteWidth    uint `json:"write_width" mapstructure:"write_width"`
	ReadWidth     uint `json:"read_width" mapstructure:"read_width"`
	WaitCycles    uint `json:"wait_cycles" mapstructure:"wait_cycles"`
	WriteCmd      uint `json:"write_cmd" mapstructure:"write_cmd"`
}

// I3CParams configures the I3C master
type I3CParams struct {
	Index        uint `json:"index" mapstructure:"index"`
	CMB          uint `json:"cmb" mapstructure:"cmb"`
	ByteCount    uint `json:"byte_count" mapstructure:"byte_count"`
	I3CRateIndex uint `json:"i3c_rate" mapstructure:"i3c_rate"`
	I2CRateIndex uint `json:"i2c_rate" mapstructure:"i2c_rate"`
	Pullup       uint `json:"pullup" mapstructure:"pullup"`
	ErrMsg       bool `json:"err_msg" mapstructure:"err_msg"`
}

// ProtocolConfig is a tagged union: Active selects which variant the encoder
// uses, the other variants keep their values for later reselection.
type ProtocolConfig struct {
	Active ProtocolKind `json:"active" mapstructure:"active"`
	RFFE   RFFEParams   `json:"rffe" mapstructure:"rffe"`
	SPI    SPIParams    `json:"spi" mapstructure:"spi"`
	I3C    I3CParams    `json:"i3c" mapstructure:"i3c"`
}

// DefaultProtocolConfig returns the parameter sets used on first start
func DefaultProtocolConfig() ProtocolConfig {
	return ProtocolConfig{
		Active: ProtocolRFFE,
		RFFE: RFFEParams{
			SlaveAddr: 0,
			ClockKHz:  26000,
			HSDR:      false,
		},
		SPI: SPIParams{
			ClockKHz:      1000,
			Select:        0,
			SelPolarity:   0,
			Mode:          0,
			CmdWidthBits:  8,
			AddrWidthBits: 8,
			WriteWidth:    1,
			ReadWidth:     1,
			WaitCycles:    0,
			WriteCmd:      0x02,
		},
		I3C: I3CParams{
			Index:        0,
			CMB:          0,
			ByteCount:    1,
			I3CRateIndex: 0,
			I2CRateIndex: 0,
			Pullup:       0,
			ErrMsg:       false,
		},
	}
}
