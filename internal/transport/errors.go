// internal/transport/errors.go
package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by Send when no link is open
	ErrNotConnected = errors.New("not connected")
	// ErrConnectInProgress is returned when Connect is called while the link is
	// being opened or closed
	ErrConnectInProgress = errors.New("connect already in progress")
	// ErrNothingToExport is returned when exporting an empty log
	ErrNothingToExport = errors.New("no log data to export")
	// ErrExportCancelled is returned when the save location was not chosen
	ErrExportCancelled = errors.New("export cancelled")
	// ErrResponseTimeout is returned when no matching response arrived in time
	ErrResponseTimeout = errors.New("timed out waiting for device response")
)

// ConnectionError indicates that opening the link failed
type ConnectionError struct {
	Device string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %q: %v", e.Device, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SendError indicates that the driver rejected a write
type SendError struct {
	Command string
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send %q: %v", e.Command, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// ExportError indicates that writing the exported log failed
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("failed to save log to %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// UnknownFormatError is returned for an export format other than csv or json
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown log format: %q", e.Format)
}
