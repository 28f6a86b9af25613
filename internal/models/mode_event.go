package models

import "time"

// Event types written to the audit log.
const (
	EventModeChange      = "MODE_CHANGE"
	EventModeSet         = "MODE_SET"
	EventWriteFailed     = "WRITE_FAILED"
	EventUnknownCode     = "UNKNOWN_CODE"
	EventEndpointAdded   = "ENDPOINT_ADDED"
	EventEndpointRemoved = "ENDPOINT_REMOVED"
)

// ModeEvent is a single audit log entry.
type ModeEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	DeviceID    string    `json:"device_id"`
	Mode        Mode      `json:"mode,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
