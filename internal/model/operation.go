// internal/model/operation.go
package model

import "time"

// Operation names a user-level action whose progress is shown in the UI
type Operation string

const (
	OperationConnect       Operation = "CONNECT"
	OperationDisconnect    Operation = "DISCONNECT"
	OperationOutputLevel   Operation = "OUTPUT_LEVEL"
	OperationClockConfig   Operation = "CLOCK_CONFIG"
	OperationWriteRegister Operation = "WRITE_REGISTER"
	OperationReadRegister  Operation = "READ_REGISTER"
	OperationVoltage       Operation = "VOLTAGE"
	OperationFrequency     Operation = "FREQUENCY"
	OperationRegisterValue Operation = "REGISTER_VALUE"
)

// Operations lists every tracked operation in display order
var Operations = []Operation{
	OperationConnect,
	OperationDisconnect,
	OperationOutputLevel,
	OperationClockConfig,
	OperationWriteRegister,
	OperationReadRegister,
	OperationVoltage,
	OperationFrequency,
	OperationRegisterValue,
}

// SendOutcome is the transient feedback state of one operation
type SendOutcome struct {
	Pending   bool       `json:"pending"`
	Succeeded bool       `json:"succeeded"`
	LastError string     `json:"last_error,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
