package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/adapters/outbox"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/adapters/repository"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/config"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/event-log-service/test/mocks"
)

const claimQuery = "SELECT id, event_type, event_date_time, environment, event_context, metadata_version"

var outboxColumns = []string{"id", "event_type", "event_date_time", "environment", "event_context", "metadata_version"}

func newTestRelay(t *testing.T) (*outbox.Relay, sqlmock.Sqlmock, *mocks.MockSinkOpener) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	opener := mocks.NewMockSinkOpener()
	relay := outbox.NewRelay(db, repository.NewOutboxStore(), opener, &config.RelayConfig{
		TickInterval: time.Second,
		BatchLimit:   10,
		ChunkSize:    1000,
	})
	return relay, mock, opener
}

func userCreatedContext() []byte {
	return []byte(`{"email":"test@email.com","first_name":"Test","last_name":"Testovich"}`)
}

func TestTick_EmptyOutboxIsNoOp(t *testing.T) {
	relay, mock, opener := newTestRelay(t)

	mock.ExpectBegin()
	mock.ExpectQuery(claimQuery).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(outboxColumns))
	mock.ExpectCommit()

	delivered, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, delivered)

	// An empty tick must not open a sink connection.
	assert.Zero(t, opener.Opens())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTick_DeliversClaimedBatch(t *testing.T) {
	relay, mock, opener := newTestRelay(t)

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(claimQuery).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(outboxColumns).
			AddRow(int64(1), "user_created", now, "Local", userCreatedContext(), 1).
			AddRow(int64(2), "user_created", now, "Local", userCreatedContext(), 1))
	mock.ExpectExec("UPDATE event_outbox SET processed = TRUE").
		WithArgs(pq.Array([]int64{1, 2})).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	delivered, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)

	records := opener.Sink.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "user_created", records[0].EventType)
	assert.Equal(t, `{"email":"test@email.com","first_name":"Test","last_name":"Testovich"}`, records[0].EventContext)
	assert.Equal(t, 1, opener.Sink.CloseCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTick_SinkFailureRollsBackClaim(t *testing.T) {
	relay, mock, opener := newTestRelay(t)
	opener.Sink.InsertError = domain.ErrSinkUnavailable

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(claimQuery).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(outboxColumns).
			AddRow(int64(1), "user_created", now, "Local", userCreatedContext(), 1))
	mock.ExpectRollback()

	_, err := relay.Tick(context.Background())
	require.ErrorIs(t, err, domain.ErrSinkUnavailable)

	// Scoped handle is released even on the failure path.
	assert.Equal(t, 1, opener.Sink.CloseCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTick_PoisonRowAbortsWholeClaim(t *testing.T) {
	relay, mock, opener := newTestRelay(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(claimQuery).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(outboxColumns).
			AddRow(int64(1), "user_created", now, "Local", userCreatedContext(), 1).
			AddRow(int64(2), "unknown", now, "Local", []byte(`{}`), 1))
	mock.ExpectRollback()

	_, err := relay.Tick(context.Background())
	require.ErrorIs(t, err, domain.ErrUnknownEventType)

	// Nothing ships when any claimed row cannot be prepared.
	assert.Zero(t, opener.Opens())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTick_InvalidContextAbortsWholeClaim(t *testing.T) {
	relay, mock, opener := newTestRelay(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(claimQuery).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(outboxColumns).
			AddRow(int64(1), "user_created", now, "Local", []byte(`{"email":"only@email.com"}`), 1))
	mock.ExpectRollback()

	_, err := relay.Tick(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidContext)
	assert.Zero(t, opener.Opens())
	assert.NoError(t, mock.ExpectationsWereMet())
}
