package encoder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"ic-control/internal/model"
)

func TestWriteRegister(t *testing.T) {
	tests := []struct {
		name        string
		cfg         model.ProtocolConfig
		address     uint32
		value       uint32
		want        []string
		wantAdjusts []Adjustment
	}{
		{
			name: "rffe clamps register address",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolRFFE,
				RFFE:   model.RFFEParams{SlaveAddr: 3},
			},
			address:     40,
			value:       0xAB,
			want:        []string{"rw 3 1F AB"},
			wantAdjusts: []Adjustment{{Param: "reg_addr", From: 40, To: 31}},
		},
		{
			name: "rffe clamps slave and masks data",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolRFFE,
				RFFE:   model.RFFEParams{SlaveAddr: 20},
			},
			address: 0x05,
			value:   0x1FF,
			want:    []string{"rw 15 05 FF"},
			wantAdjusts: []Adjustment{
				{Param: "slave_addr", From: 20, To: 15},
				{Param: "data", From: 0x1FF, To: 0xFF},
			},
		},
		{
			name: "spi one byte",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolSPI,
				SPI:    model.SPIParams{CmdWidthBits: 8, AddrWidthBits: 8, WriteWidth: 1, WriteCmd: 0x9F},
			},
			address: 0x10,
			value:   0x5A,
			want:    []string{"s_write 1 9F 10 5A"},
		},
		{
			name: "spi two bytes with wide address",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolSPI,
				SPI:    model.SPIParams{CmdWidthBits: 4, AddrWidthBits: 16, WriteWidth: 2, WriteCmd: 0x2},
			},
			address: 0x10,
			value:   0x5A,
			want:    []string{"s_write 1 02 0010 005A"},
		},
		{
			name: "spi four bytes",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolSPI,
				SPI:    model.SPIParams{CmdWidthBits: 12, AddrWidthBits: 8, WriteWidth: 3, WriteCmd: 0xABC},
			},
			address: 0x01,
			value:   0xBEEF,
			want:    []string{"s_write 1 ABC 01 0000BEEF"},
		},
		{
			name: "spi unknown width selector means one byte",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolSPI,
				SPI:    model.SPIParams{CmdWidthBits: 8, AddrWidthBits: 8, WriteWidth: 7, WriteCmd: 0x02},
			},
			address:     0x01,
			value:       0x1234,
			want:        []string{"s_write 1 02 01 34"},
			wantAdjusts: []Adjustment{{Param: "data", From: 0x1234, To: 0x34}},
		},
		{
			name: "spi clamps command and address widths",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolSPI,
				SPI:    model.SPIParams{CmdWidthBits: 4096, AddrWidthBits: 0, WriteWidth: 1, WriteCmd: 0x9F},
			},
			address: 0x10,
			value:   0x5A,
			want:    []string{"s_write 1 0000009F 10 5A"},
			wantAdjusts: []Adjustment{
				{Param: "cmd_width", From: 4096, To: 32},
				{Param: "addr_width", From: 0, To: 1},
			},
		},
		{
			name: "i3c big endian",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolI3C,
				I3C:    model.I3CParams{Index: 1, CMB: 0, ByteCount: 2},
			},
			value: 0x1234,
			want:  []string{"sdr_write 1 0 2 12 34"},
		},
		{
			name: "i3c clamps byte count",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolI3C,
				I3C:    model.I3CParams{Index: 2, CMB: 1, ByteCount: 9},
			},
			value:       0x01020304,
			want:        []string{"sdr_write 2 1 4 01 02 03 04"},
			wantAdjusts: []Adjustment{{Param: "byte_count", From: 9, To: 4}},
		},
		{
			name: "i3c zero byte count becomes one",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolI3C,
				I3C:    model.I3CParams{ByteCount: 0},
			},
			value: 0x7,
			want:  []string{"sdr_write 0 0 1 07"},
			wantAdjusts: []Adjustment{
				{Param: "byte_count", From: 0, To: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WriteRegister(tt.cfg, tt.address, tt.value)
			if err != nil {
				t.Fatalf("WriteRegister() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got.Commands); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantAdjusts, got.Adjustments); diff != "" {
				t.Errorf("adjustments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClockConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.ProtocolConfig
		want []string
	}{
		{
			name: "rffe",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolRFFE,
				RFFE:   model.RFFEParams{ClockKHz: 26000, HSDR: true},
			},
			want: []string{"clock 26000", "hsdr 1"},
		},
		{
			name: "spi",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolSPI,
				SPI: model.SPIParams{
					ClockKHz: 1000, Select: 1, SelPolarity: 0, Mode: 3,
					CmdWidthBits: 8, AddrWidthBits: 16, WriteWidth: 2, ReadWidth: 1, WaitCycles: 4,
				},
			},
			want: []string{"clock 1000", "config 1 0 3 8 16 2 1 4"},
		},
		{
			name: "spi clamps widths",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolSPI,
				SPI:    model.SPIParams{ClockKHz: 500, CmdWidthBits: 64, AddrWidthBits: 0},
			},
			want: []string{"clock 500", "config 0 0 0 32 1 0 0 0"},
		},
		{
			name: "i3c",
			cfg: model.ProtocolConfig{
				Active: model.ProtocolI3C,
				I3C:    model.I3CParams{I3CRateIndex: 2, I2CRateIndex: 1, Pullup: 3, ErrMsg: false},
			},
			want: []string{"clkset 2 1", "pullup 3", "err_msg 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClockConfig(tt.cfg)
			if err != nil {
				t.Fatalf("ClockConfig() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got.Commands); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnsupportedProtocol(t *testing.T) {
	cfg := model.ProtocolConfig{Active: "UART"}
	if _, err := WriteRegister(cfg, 0, 0); err == nil {
		t.Error("WriteRegister() error = nil, want error")
	}
	if _, err := ClockConfig(cfg); err == nil {
		t.Error("ClockConfig() error = nil, want error")
	}
}

func TestSingleCommandForms(t *testing.T) {
	tests := []struct {
		name string
		got  Encoded
		want string
	}{
		{name: "vio", got: OutputLevel(2), want: "vio 2"},
		{name: "read", got: ReadRegister(0x0A), want: "RREG:0x0A"},
		{name: "volt", got: LegacyVoltage(decimal.NewFromFloat(3.3)), want: "VOLT:3.30"},
		{name: "volt rounds", got: LegacyVoltage(decimal.RequireFromString("1.805")), want: "VOLT:1.81"},
		{name: "freq", got: LegacyFrequency(1000000), want: "FREQ:1000000"},
		{name: "reg", got: LegacyRegisterValue(0xBEEF), want: "REG:0x0000BEEF"},
		{name: "wreg", got: LegacyWriteRegister(0x1, 0xAB), want: "WREG:0x01,0xAB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff([]string{tt.want}, tt.got.Commands); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSPIByteWidth(t *testing.T) {
	tests := []struct {
		selector uint
		want     int
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {4, 1},
	}
	for _, tt := range tests {
		if got := SPIByteWidth(tt.selector); got != tt.want {
			t.Errorf("SPIByteWidth(%d) = %d, want %d", tt.selector, got, tt.want)
		}
	}
}
