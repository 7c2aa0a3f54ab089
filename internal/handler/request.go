// internal/handler/request.go
package handler

import (
	"encoding/json"
	"fmt"
	"strconv"

	"ic-control/internal/register"
)

// Number accepts a JSON number or a decimal/0x-hex string
type Number uint32

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var u uint32
		if err := json.Unmarshal(b, &u); err != nil {
			return fmt.Errorf("value must be a 32-bit unsigned number or numeric string")
		}
		*n = Number(u)
		return nil
	}
	v, ok := register.ParseNumber(s)
	if !ok || v > 0xFFFFFFFF {
		return fmt.Errorf("invalid number %q", s)
	}
	*n = Number(v)
	return nil
}

// ConnectRequest selects the device to open
type ConnectRequest struct {
	Device string `json:"device" binding:"required"`
}

// ValueRequest carries a register or field value
type ValueRequest struct {
	Value *Number `json:"value" binding:"required"`
}

// RawRequest carries a free-form command
type RawRequest struct {
	Data string `json:"data" binding:"required"`
}

// ActiveProtocolRequest switches the protocol
type ActiveProtocolRequest struct {
	Protocol string `json:"protocol" binding:"required"`
}

// FiltersRequest toggles TX/RX capture
type FiltersRequest struct {
	TX *bool `json:"tx" binding:"required"`
	RX *bool `json:"rx" binding:"required"`
}

// parseAddress parses a register address path parameter
func parseAddress(s string) (uint32, error) {
	v, ok := register.ParseNumber(s)
	if !ok || v > 0xFFFFFFFF {
		return 0, fmt.Errorf("invalid register address %q", s)
	}
	return uint32(v), nil
}

func formatHex(v uint32) string {
	return "0x" + strconv.FormatUint(uint64(v), 16)
}
