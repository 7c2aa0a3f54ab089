// internal/encoder/legacy.go
package encoder

import (
	"github.com/shopspring/decimal"
)

// LegacyVoltage encodes "VOLT:<v>" with two decimals
func LegacyVoltage(v decimal.Decimal) Encoded {
	var b builder
	b.add("VOLT:%s", v.StringFixed(2))
	return b.out
}

// LegacyFrequency encodes "FREQ:<hz>"
func LegacyFrequency(hz uint64) Encoded {
	var b builder
	b.add("FREQ:%d", hz)
	return b.out
}

// LegacyRegisterValue encodes "REG:0x<8-hex>"
func LegacyRegisterValue(v uint32) Encoded {
	var b builder
	b.add("REG:0x%s", hexToken(uint64(v), 8))
	return b.out
}

// LegacyReadRegister encodes "RREG:0x<2-hex>"
func LegacyReadRegister(address uint32) Encoded {
	var b builder
	b.add("RREG:0x%s", hexToken(uint64(address), 2))
	return b.out
}

// LegacyWriteRegister encodes "WREG:0x<2-hex>,0x<2-hex>"
func LegacyWriteRegister(address, value uint32) Encoded {
	var b builder
	b.add("WREG:0x%s,0x%s", hexToken(uint64(address), 2), hexToken(uint64(value), 2))
	return b.out
}
