// internal/model/log.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Direction tags a log entry as transmitted or received
type Direction string

const (
	DirectionTX Direction = "TX"
	DirectionRX Direction = "RX"
)

// LogEntry is one line of the traffic log
type LogEntry struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"type"`
	Port      string    `json:"port"`
	Data      string    `json:"data"`
}
