// internal/model/control.go
package model

import (
	"github.com/shopspring/decimal"
)

// ControlState holds the IC supply and clock values the user dialed in.
// Values are kept even while disconnected and applied on request.
type ControlState struct {
	Voltage       decimal.Decimal `json:"voltage"`
	FrequencyHz   uint64          `json:"frequency_hz"`
	VIO           uint            `json:"vio"`
	RegisterValue uint32          `json:"register_value"`
}

// DefaultControlState returns 3.3 V at 1 MHz
func DefaultControlState() ControlState {
	return ControlState{
		Voltage:     decimal.NewFromFloat(3.3),
		FrequencyHz: 1000000,
		VIO:         0,
	}
}
