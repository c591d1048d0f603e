package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/ports"
)

type SQLRepository struct {
	db     *sql.DB
	outbox ports.OutboxStore
}

// Ensure SQLRepository implements ports.UserRepository
var _ ports.UserRepository = (*SQLRepository)(nil)

func NewSQLRepository(db *sql.DB, outbox ports.OutboxStore) *SQLRepository {
	return &SQLRepository{db: db, outbox: outbox}
}

// CreateUser inserts the user and its user_created outbox row in one
// transaction. A duplicate email writes nothing and reports created=false;
// a failed outbox append rolls the user row back with it.
func (r *SQLRepository) CreateUser(ctx context.Context, user domain.User, event domain.OutboxEvent) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		// Duplicate email. Nothing was written; commit just ends the tx.
		return false, tx.Commit()
	}

	if err := r.outbox.Append(ctx, tx, event); err != nil {
		return false, fmt.Errorf("append outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
