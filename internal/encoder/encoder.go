// internal/encoder/encoder.go

// Package encoder turns register and configuration intents into the exact
// command lines each wire protocol expects. Every function is pure.
package encoder

import (
	"fmt"
	"strings"

	"ic-control/internal/model"
)

// Adjustment records an input that was silently clamped or masked
type Adjustment struct {
	Param string `json:"param"`
	From  uint64 `json:"from"`
	To    uint64 `json:"to"`
}

func (a Adjustment) String() string {
	return fmt.Sprintf("%s %d -> %d", a.Param, a.From, a.To)
}

// Encoded is an ordered command sequence plus the adjustments made to build it
type Encoded struct {
	Commands    []string     `json:"commands"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
}

// Adjusted reports whether any input was clamped or masked
func (e Encoded) Adjusted() bool {
	return len(e.Adjustments) > 0
}

func (e Encoded) String() string {
	return strings.Join(e.Commands, "\n")
}

type builder struct {
	out Encoded
}

func (b *builder) add(format string, args ...interface{}) {
	b.out.Commands = append(b.out.Commands, fmt.Sprintf(format, args...))
}

func (b *builder) clamp(param string, v, lo, hi uint64) uint64 {
	c := v
	if c < lo {
		c = lo
	}
	if c > hi {
		c = hi
	}
	if c != v {
		b.out.Adjustments = append(b.out.Adjustments, Adjustment{Param: param, From: v, To: c})
	}
	return c
}

func (b *builder) mask(param string, v, m uint64) uint64 {
	c := v & m
	if c != v {
		b.out.Adjustments = append(b.out.Adjustments, Adjustment{Param: param, From: v, To: c})
	}
	return c
}

func hexToken(v uint64, width int) string {
	return fmt.Sprintf("%0*X", width, v)
}

// WriteRegister encodes a register write for the active protocol
func WriteRegister(cfg model.ProtocolConfig, address, value uint32) (Encoded, error) {
	switch cfg.Active {
	case model.ProtocolRFFE:
		return RFFEWrite(cfg.RFFE, address, value), nil
	case model.ProtocolSPI:
		return SPIWrite(cfg.SPI, address, value), nil
	case model.ProtocolI3C:
		return I3CWrite(cfg.I3C, value), nil
	}
	return Encoded{}, &UnsupportedProtocolError{Protocol: cfg.Active}
}

// ClockConfig encodes the clock and mode setup for the active protocol
func ClockConfig(cfg model.ProtocolConfig) (Encoded, error) {
	switch cfg.Active {
	case model.ProtocolRFFE:
		return RFFEClock(cfg.RFFE), nil
	case model.ProtocolSPI:
		return SPIClock(cfg.SPI), nil
	case model.ProtocolI3C:
		return I3CClock(cfg.I3C), nil
	}
	return Encoded{}, &UnsupportedProtocolError{Protocol: cfg.Active}
}

// OutputLevel encodes the IO voltage setting, identical for all protocols
func OutputLevel(setting uint) Encoded {
	var b builder
	b.add("vio %d", setting)
	return b.out
}

// ReadRegister encodes a register read. The device understands only the RREG form.
func ReadRegister(address uint32) Encoded {
	return LegacyReadRegister(address)
}

// UnsupportedProtocolError is returned when the active protocol kind is unknown
type UnsupportedProtocolError struct {
	Protocol model.ProtocolKind
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("unsupported protocol: %q", e.Protocol)
}
