// internal/register/errors.go
package register

import (
	"errors"
	"fmt"
)

var (
	// ErrRegisterNotFound is returned when no register exists at an address
	ErrRegisterNotFound = errors.New("register not found")
	// ErrFieldNotFound is returned when a register has no field of the given name
	ErrFieldNotFound = errors.New("field not found")
)

// MapParseError indicates that a register map source is structurally malformed.
type MapParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MapParseError) Error() string {
	msg := "register map parse failed"
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MapParseError) Unwrap() error {
	return e.Err
}

// WriteBackError indicates that the model was updated but the device write failed.
type WriteBackError struct {
	Address uint32
	Value   uint32
	Err     error
}

func (e *WriteBackError) Error() string {
	return fmt.Sprintf("write-back of register 0x%02X = 0x%02X failed: %v", e.Address, e.Value, e.Err)
}

func (e *WriteBackError) Unwrap() error {
	return e.Err
}
