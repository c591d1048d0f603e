package domain

import "time"

// EventType tags an outbox row and selects the preparer that turns its raw
// context into the typed record shipped to the event log.
type EventType string

const (
	EventTypeUserCreated EventType = "user_created"
)

// OutboxEvent is one row of the event_outbox table. Rows are written inside
// the producing business transaction with Processed=false and flipped to
// Processed=true exactly once by a relay worker.
type OutboxEvent struct {
	ID              int64
	EventType       EventType
	EventDateTime   time.Time
	Environment     string
	EventContext    map[string]any
	MetadataVersion int
	Processed       bool
}

// SinkRecord is the row shape of the analytical event log. EventContext is
// the JSON serialization of the typed payload produced by the preparer, not
// a raw copy of the outbox row's context map.
type SinkRecord struct {
	EventType       string
	EventDateTime   time.Time
	Environment     string
	EventContext    string
	MetadataVersion uint32
}
