package mocks

import (
	"context"
	"sync"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/ports"
)

// MockSinkOpener implements ports.SinkOpener and hands out a shared
// MockEventLogSink, so tests can verify what the relay shipped without a
// real ClickHouse connection.
type MockSinkOpener struct {
	mu   sync.Mutex
	Sink *MockEventLogSink

	// Error injection for testing error scenarios
	OpenError error

	OpenCount int
}

var _ ports.SinkOpener = (*MockSinkOpener)(nil)

func NewMockSinkOpener() *MockSinkOpener {
	return &MockSinkOpener{Sink: &MockEventLogSink{}}
}

func (m *MockSinkOpener) Open(ctx context.Context) (ports.EventLogSink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OpenError != nil {
		return nil, m.OpenError
	}
	m.OpenCount += 1
	return m.Sink, nil
}

// Opens returns how many sink handles have been acquired.
func (m *MockSinkOpener) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.OpenCount
}

// MockEventLogSink implements ports.EventLogSink and records every inserted
// record and every close.
type MockEventLogSink struct {
	mu sync.Mutex

	inserted   []domain.SinkRecord
	chunkSizes []int

	// Error injection for testing error scenarios
	InsertError error

	CloseCount int
}

var _ ports.EventLogSink = (*MockEventLogSink)(nil)

func (m *MockEventLogSink) Insert(ctx context.Context, records []domain.SinkRecord, chunkSize int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	m.inserted = append(m.inserted, records...)
	m.chunkSizes = append(m.chunkSizes, chunkSize)
	return nil
}

func (m *MockEventLogSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCount += 1
	return nil
}

// Records returns a copy of everything inserted so far.
func (m *MockEventLogSink) Records() []domain.SinkRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SinkRecord, len(m.inserted))
	copy(out, m.inserted)
	return out
}

// SetInsertError toggles failure injection; safe under concurrent ticks.
func (m *MockEventLogSink) SetInsertError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertError = err
}
