// internal/model/event.go
package model

import (
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventConnectionChanged EventType = "CONNECTION_CHANGED"
	EventLogFlushed        EventType = "LOG_FLUSHED"
	EventLogCleared        EventType = "LOG_CLEARED"
	EventOutcomeChanged    EventType = "OUTCOME_CHANGED"
	EventSettingsChanged   EventType = "SETTINGS_CHANGED"
	EventRegisterChanged   EventType = "REGISTER_CHANGED"
)

// SessionEvent is published by the session and fanned out to subscribers
type SessionEvent struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConnectionEventData carries a connection state transition
type ConnectionEventData struct {
	State         string `json:"state"`
	Device        string `json:"device,omitempty"`
	LastConnected string `json:"last_connected,omitempty"`
	Error         string `json:"error,omitempty"`
}

// OutcomeEventData carries one operation outcome change
type OutcomeEventData struct {
	Operation Operation   `json:"operation"`
	Outcome   SendOutcome `json:"outcome"`
}
