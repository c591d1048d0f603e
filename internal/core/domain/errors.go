package domain

import "errors"

// Error kinds of the outbox pipeline. Callers classify wrapped errors with
// errors.Is; the relay treats all sink errors as retriable on the next tick.
var (
	// ErrUnknownEventType means no preparer is registered for the
	// (event_type, metadata_version) of a claimed row.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrInvalidContext means a claimed row's context map is missing a
	// required field or carries one with the wrong type.
	ErrInvalidContext = errors.New("invalid event context")

	// ErrSinkUnavailable covers transport failures talking to the event log.
	ErrSinkUnavailable = errors.New("event log sink unavailable")

	// ErrSinkRejected means the sink refused a record (schema drift).
	ErrSinkRejected = errors.New("event log sink rejected records")

	// ErrOutboxConflict is a constraint violation while appending an outbox
	// row; it rolls back the whole producing transaction.
	ErrOutboxConflict = errors.New("outbox write conflict")
)
