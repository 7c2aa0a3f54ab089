// internal/encoder/spi.go
package encoder

import "ic-control/internal/model"

const maxSPIWidthBits = 32

// SPIByteWidth maps the width selector to a byte count: 1->1, 2->2, 3->4.
// Any other selector means one byte.
func SPIByteWidth(selector uint) int {
	switch selector {
	case 2:
		return 2
	case 3:
		return 4
	default:
		return 1
	}
}

// hexDigits is ceil(bits/4), never less than 2
func hexDigits(bits uint) int {
	d := int((bits + 3) / 4)
	if d < 2 {
		return 2
	}
	return d
}

func bitsMask(bits uint) uint64 {
	if bits == 0 || bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

// spiWidths clamps the command and address widths to 1..maxSPIWidthBits
func (b *builder) spiWidths(p model.SPIParams) (cmd, addr uint) {
	cmd = uint(b.clamp("cmd_width", uint64(p.CmdWidthBits), 1, maxSPIWidthBits))
	addr = uint(b.clamp("addr_width", uint64(p.AddrWidthBits), 1, maxSPIWidthBits))
	return cmd, addr
}

// SPIWrite encodes "s_write 1 <CC> <AA> <DD>" using the configured write command.
// Only the data token is masked, to the selected byte width.
func SPIWrite(p model.SPIParams, address, value uint32) Encoded {
	var b builder
	cmdBits, addrBits := b.spiWidths(p)
	cmdDigits := hexDigits(cmdBits)
	addrDigits := hexDigits(addrBits)
	byteWidth := SPIByteWidth(p.WriteWidth)

	data := b.mask("data", uint64(value), bitsMask(uint(byteWidth*8)))

	b.add("s_write 1 %s %s %s",
		hexToken(uint64(p.WriteCmd), cmdDigits),
		hexToken(uint64(address), addrDigits),
		hexToken(data, byteWidth*2))
	return b.out
}

// SPIClock encodes "clock <kHz>" followed by the config line
func SPIClock(p model.SPIParams) Encoded {
	var b builder
	cmdBits, addrBits := b.spiWidths(p)
	b.add("clock %d", p.ClockKHz)
	b.add("config %d %d %d %d %d %d %d %d",
		p.Select, p.SelPolarity, p.Mode,
		cmdBits, addrBits,
		p.WriteWidth, p.ReadWidth, p.WaitCycles)
	return b.out
}
