package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/ports"
)

// OutboxStore operates on the event_outbox table. It is stateless: every
// method runs on the caller's transaction, so the append always rides the
// producing business transaction and the claim stays locked until the relay
// commits or rolls back.
type OutboxStore struct{}

var _ ports.OutboxStore = (*OutboxStore)(nil)

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{}
}

func (s *OutboxStore) Append(ctx context.Context, tx *sql.Tx, event domain.OutboxEvent) error {
	eventContext, err := json.Marshal(event.EventContext)
	if err != nil {
		return fmt.Errorf("marshal event context: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_outbox (event_type, event_date_time, environment, event_context, metadata_version, processed)
		VALUES ($1, $2, $3, $4, $5, FALSE)`,
		string(event.EventType),
		event.EventDateTime.UTC(),
		event.Environment,
		eventContext,
		event.MetadataVersion,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
			return fmt.Errorf("%w: %v", domain.ErrOutboxConflict, err)
		}
		return err
	}
	return nil
}

func (s *OutboxStore) ClaimBatch(ctx context.Context, tx *sql.Tx, limit int) ([]domain.OutboxEvent, error) {
	query := `
		SELECT id, event_type, event_date_time, environment, event_context, metadata_version
		FROM event_outbox
		WHERE processed = FALSE
		ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += `
		LIMIT $1`
		args = append(args, limit)
	}
	// Rows locked by a concurrent relay are silently skipped, so claims from
	// parallel workers are always disjoint.
	query += `
		FOR UPDATE SKIP LOCKED`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []domain.OutboxEvent
	for rows.Next() {
		var evt domain.OutboxEvent
		var eventType string
		var eventContext []byte
		if err := rows.Scan(&evt.ID, &eventType, &evt.EventDateTime, &evt.Environment, &eventContext, &evt.MetadataVersion); err != nil {
			return nil, err
		}
		evt.EventType = domain.EventType(eventType)
		if err := json.Unmarshal(eventContext, &evt.EventContext); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", domain.ErrInvalidContext, evt.ID, err)
		}
		claimed = append(claimed, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *OutboxStore) MarkProcessed(ctx context.Context, tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE event_outbox SET processed = TRUE WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	return err
}
