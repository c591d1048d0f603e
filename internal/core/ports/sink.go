package ports

import (
	"context"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
)

// EventLogSink is a scoped handle on the analytical event log. The relay
// opens one per non-empty tick and closes it on every exit path.
type EventLogSink interface {
	// Insert ships records in chunks of at most chunkSize per request.
	// Partial success inside a batch is observable only as overall failure.
	Insert(ctx context.Context, records []domain.SinkRecord, chunkSize int) error
	Close() error
}

// SinkOpener acquires sink handles. Connections are per-tick, never shared
// across relay workers.
type SinkOpener interface {
	Open(ctx context.Context) (EventLogSink, error)
}
