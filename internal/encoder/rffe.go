// internal/encoder/rffe.go
package encoder

import "ic-control/internal/model"

const (
	rffeMaxSlave   = 15
	rffeMaxAddress = 31
)

// RFFEWrite encodes "rw <SA> <AA> <DD>". SA is clamped to 0..15, AA to 0..31.
func RFFEWrite(p model.RFFEParams, address, value uint32) Encoded {
	var b builder
	sa := b.clamp("slave_addr", uint64(p.SlaveAddr), 0, rffeMaxSlave)
	aa := b.clamp("reg_addr", uint64(address), 0, rffeMaxAddress)
	dd := b.mask("data", uint64(value), 0xFF)
	b.add("rw %d %s %s", sa, hexToken(aa, 2), hexToken(dd, 2))
	return b.out
}

// RFFEClock encodes "clock <kHz>" followed by "hsdr <0|1>"
func RFFEClock(p model.RFFEParams) Encoded {
	var b builder
	b.add("clock %d", p.ClockKHz)
	b.add("hsdr %d", boolDigit(p.HSDR))
	return b.out
}

func boolDigit(v bool) int {
	if v {
		return 1
	}
	return 0
}
