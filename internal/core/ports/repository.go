package ports

import (
	"context"
	"database/sql"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
)

type UserRepository interface {
	// CreateUser inserts the user and appends the given outbox event inside
	// one transaction. created=false means a user with the same email already
	// exists; in that case nothing is written, the outbox row included.
	CreateUser(ctx context.Context, user domain.User, event domain.OutboxEvent) (created bool, err error)
}

// OutboxStore is the event_outbox table contract. Every method runs on the
// caller's transaction; the store never opens its own. Producers only Append,
// relays only ClaimBatch and MarkProcessed.
type OutboxStore interface {
	// Append inserts a pending row. Must be called inside the transaction
	// that performs the business write.
	Append(ctx context.Context, tx *sql.Tx, event domain.OutboxEvent) error

	// ClaimBatch selects up to limit unprocessed rows in ascending id order
	// with FOR UPDATE SKIP LOCKED, so concurrent relays never see overlapping
	// rows. limit <= 0 claims everything pending.
	ClaimBatch(ctx context.Context, tx *sql.Tx, limit int) ([]domain.OutboxEvent, error)

	// MarkProcessed flips the given rows to processed=true. The flip becomes
	// visible when the caller commits the claiming transaction.
	MarkProcessed(ctx context.Context, tx *sql.Tx, ids []int64) error
}
