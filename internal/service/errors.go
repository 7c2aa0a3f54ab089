// internal/service/errors.go
package service

import (
	"errors"
	"fmt"
)

// ErrInvalidSettings is returned when a settings update fails validation
var ErrInvalidSettings = errors.New("invalid settings")

// SequenceAbortError indicates that a multi-command intent stopped at its
// first failed send. Commands before the failing one were transmitted.
type SequenceAbortError struct {
	Sent    int
	Total   int
	Command string
	Err     error
}

func (e *SequenceAbortError) Error() string {
	return fmt.Sprintf("sequence aborted after %d of %d commands at %q: %v",
		e.Sent, e.Total, e.Command, e.Err)
}

func (e *SequenceAbortError) Unwrap() error {
	return e.Err
}

// ReadError indicates that a register read got no usable answer
type ReadError struct {
	Address uint32
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read of register 0x%02X failed: %v", e.Address, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...))
}
