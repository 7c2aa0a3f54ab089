// internal/encoder/i3c.go
package encoder

import (
	"strings"

	"ic-control/internal/model"
)

// I3CWrite encodes "sdr_write <idx> <cmb> <N> <bytes...>" with N clamped to
// 1..4 and the value split most-significant byte first.
func I3CWrite(p model.I3CParams, value uint32) Encoded {
	var b builder
	n := int(b.clamp("byte_count", uint64(p.ByteCount), 1, 4))
	v := b.mask("data", uint64(value), bitsMask(uint(n*8)))

	tokens := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		tokens = append(tokens, hexToken((v>>(8*uint(i)))&0xFF, 2))
	}
	b.add("sdr_write %d %d %d %s", p.Index, p.CMB, n, strings.Join(tokens, " "))
	return b.out
}

// I3CClock encodes clkset, pullup and err_msg in that order
func I3CClock(p model.I3CParams) Encoded {
	var b builder
	b.add("clkset %d %d", p.I3CRateIndex, p.I2CRateIndex)
	b.add("pullup %d", p.Pullup)
	b.add("err_msg %d", boolDigit(p.ErrMsg))
	return b.out
}
