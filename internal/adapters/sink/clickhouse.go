// Package sink ships prepared event records to the analytical event log
// (ClickHouse) over the native protocol.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/config"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/ports"
)

const dialTimeout = 5 * time.Second

// ClickHouseOpener builds per-tick sink handles. The relay opens one handle
// per non-empty tick and closes it on every exit path.
type ClickHouseOpener struct {
	options *clickhouse.Options
	table   string
}

var _ ports.SinkOpener = (*ClickHouseOpener)(nil)

func NewClickHouseOpener(cfg *config.RelayConfig) *ClickHouseOpener {
	return &ClickHouseOpener{
		options: &clickhouse.Options{
			Addr: []string{cfg.SinkHost},
			Auth: clickhouse.Auth{
				Database: cfg.SinkDatabase,
				Username: cfg.SinkUser,
				Password: cfg.SinkPassword,
			},
			DialTimeout: dialTimeout,
		},
		table: cfg.SinkTableName,
	}
}

func (o *ClickHouseOpener) Open(ctx context.Context) (ports.EventLogSink, error) {
	conn, err := clickhouse.Open(o.options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, classifySinkError(err)
	}
	return &ClickHouseSink{conn: conn, table: o.table}, nil
}

// ClickHouseSink is a scoped handle on one native-protocol connection.
type ClickHouseSink struct {
	conn  driver.Conn
	table string
}

var _ ports.EventLogSink = (*ClickHouseSink)(nil)

// Insert ships records in chunks of at most chunkSize rows, one prepared
// batch per chunk. The first failing chunk fails the whole insert; the relay
// rolls the claim back and retries everything on a later tick.
func (s *ClickHouseSink) Insert(ctx context.Context, records []domain.SinkRecord, chunkSize int) error {
	for _, chunk := range chunkRecords(records, chunkSize) {
		if err := s.insertChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseSink) insertChunk(ctx context.Context, chunk []domain.SinkRecord) error {
	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf(
		"INSERT INTO %s (event_type, event_date_time, environment, event_context, metadata_version)",
		s.table,
	))
	if err != nil {
		return classifySinkError(err)
	}

	for _, rec := range chunk {
		if err := batch.Append(
			rec.EventType,
			rec.EventDateTime,
			rec.Environment,
			rec.EventContext,
			rec.MetadataVersion,
		); err != nil {
			return classifySinkError(err)
		}
	}

	if err := batch.Send(); err != nil {
		return classifySinkError(err)
	}
	return nil
}

func (s *ClickHouseSink) Close() error {
	return s.conn.Close()
}

func chunkRecords(records []domain.SinkRecord, size int) [][]domain.SinkRecord {
	if len(records) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]domain.SinkRecord{records}
	}

	chunks := make([][]domain.SinkRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// A server-side exception means the sink saw and refused the data; anything
// else is a transport problem. Both are retried by re-claim on a later tick.
func classifySinkError(err error) error {
	var exc *clickhouse.Exception
	if errors.As(err, &exc) {
		return fmt.Errorf("%w: code %d: %s", domain.ErrSinkRejected, exc.Code, exc.Message)
	}
	return fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
}
