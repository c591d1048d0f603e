package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/config"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/events"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/ports"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/logger"
)

const (
	// tickTimeout bounds one claim-prepare-insert-mark cycle, sink
	// round-trips included. A tick that exceeds it is aborted and retried.
	tickTimeout = 60 * time.Second

	// Health check configuration
	healthCheckStaleThreshold = 5 * time.Minute
)

var (
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_relay_ticks_total",
		Help: "Relay ticks by outcome.",
	}, []string{"outcome"})

	eventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_relay_events_delivered_total",
		Help: "Outbox rows marked processed after a successful sink insert.",
	})

	sinkFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_relay_sink_failures_total",
		Help: "Failed sink opens and inserts.",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_relay_tick_duration_seconds",
		Help:    "Duration of one relay tick.",
		Buckets: prometheus.DefBuckets,
	})
)

// Relay is the tick-driven outbox worker: it claims unprocessed rows under
// FOR UPDATE SKIP LOCKED, prepares their typed sink records, ships them to
// the event log and marks the claimed rows processed in the same relational
// transaction. Any failure aborts the whole claim; the rows stay pending and
// are retried on a later tick (at-least-once delivery).
type Relay struct {
	db    *sql.DB
	store ports.OutboxStore
	sink  ports.SinkOpener

	tickInterval time.Duration
	batchLimit   int
	chunkSize    int

	dbCB *gobreaker.CircuitBreaker
	log  zerolog.Logger

	mu            sync.Mutex
	lastProcessed time.Time
	healthy       bool
}

// NewRelay creates an outbox relay worker.
func NewRelay(db *sql.DB, store ports.OutboxStore, sink ports.SinkOpener, cfg *config.RelayConfig) *Relay {
	return &Relay{
		db:            db,
		store:         store,
		sink:          sink,
		tickInterval:  cfg.TickInterval,
		batchLimit:    cfg.BatchLimit,
		chunkSize:     cfg.ChunkSize,
		dbCB:          config.NewCircuitBreaker("Relay-PostgreSQL"),
		log:           logger.Logger.With().Str("component", "outbox_relay").Logger(),
		lastProcessed: time.Now(),
		healthy:       true,
	}
}

// IsHealthy reports whether the relay process is alive and responding.
// Liveness only; readiness is IsReady.
func (r *Relay) IsHealthy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.healthy
}

// IsReady reports whether the relay can make delivery progress.
func (r *Relay) IsReady() bool {
	if r.dbCB.State() == gobreaker.StateOpen {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastProcessed) > healthCheckStaleThreshold {
		return false
	}
	return r.healthy
}

// Start runs ticks at the configured interval until ctx is cancelled. An
// in-flight tick either commits or rolls back; cancellation never leaves a
// partially-committed claim behind. Blocking call.
func (r *Relay) Start(ctx context.Context) error {
	r.log.Info().
		Dur("tick_interval", r.tickInterval).
		Int("batch_limit", r.batchLimit).
		Int("chunk_size", r.chunkSize).
		Msg("starting outbox relay loop")

	// Catch up on startup backlog before the first ticker fire.
	if _, err := r.Tick(ctx); err != nil {
		r.log.Error().Err(err).Msg("startup tick failed")
	}

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("outbox relay shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Tick(ctx); err != nil {
				r.log.Error().Err(err).Msg("tick failed")
			}
		}
	}
}

// Tick executes one claim-prepare-insert-mark cycle and returns the number
// of rows delivered. A tick with no pending rows is a no-op that never opens
// a sink connection. Safe to call from an external scheduler.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	delivered := 0
	_, err := r.dbCB.Execute(func() (interface{}, error) {
		n, err := r.processBatch(ctx)
		delivered = n
		return nil, err
	})
	tickDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		ticksTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	r.mu.Lock()
	r.lastProcessed = time.Now()
	r.healthy = true
	r.mu.Unlock()

	if delivered == 0 {
		ticksTotal.WithLabelValues("empty").Inc()
		return 0, nil
	}

	ticksTotal.WithLabelValues("delivered").Inc()
	eventsDelivered.Add(float64(delivered))
	return delivered, nil
}

func (r *Relay) processBatch(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin claim transaction: %w", err)
	}
	defer tx.Rollback()

	claimed, err := r.store.ClaimBatch(ctx, tx, r.batchLimit)
	if err != nil {
		return 0, fmt.Errorf("claim batch: %w", err)
	}
	if len(claimed) == 0 {
		return 0, tx.Commit()
	}

	r.log.Info().Int("events", len(claimed)).Msg("claimed unprocessed events")

	records := make([]domain.SinkRecord, 0, len(claimed))
	ids := make([]int64, 0, len(claimed))
	for _, evt := range claimed {
		rec, err := events.PrepareRecord(evt)
		if err != nil {
			// Poison row: abort the whole claim rather than deliver a
			// partial batch. The rows go back to pending; an operator can
			// quarantine the bad one by setting processed=true out-of-band.
			return 0, fmt.Errorf("prepare event %d: %w", evt.ID, err)
		}
		records = append(records, rec)
		ids = append(ids, evt.ID)
	}

	sink, err := r.sink.Open(ctx)
	if err != nil {
		sinkFailures.Inc()
		return 0, fmt.Errorf("open sink: %w", err)
	}
	defer sink.Close()

	if err := sink.Insert(ctx, records, r.chunkSize); err != nil {
		sinkFailures.Inc()
		return 0, fmt.Errorf("insert into event log: %w", err)
	}

	if err := r.store.MarkProcessed(ctx, tx, ids); err != nil {
		return 0, fmt.Errorf("mark processed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit claim transaction: %w", err)
	}

	r.log.Info().Int("events", len(ids)).Msg("marked events as processed")
	return len(ids), nil
}
