package sink

import (
	"errors"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
)

func makeRecords(n int) []domain.SinkRecord {
	records := make([]domain.SinkRecord, n)
	for i := range records {
		records[i] = domain.SinkRecord{EventType: "user_created"}
	}
	return records
}

func TestChunkRecords(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		size      int
		wantSizes []int
	}{
		{name: "empty", total: 0, size: 10, wantSizes: nil},
		{name: "single_partial_chunk", total: 3, size: 10, wantSizes: []int{3}},
		{name: "exact_multiple", total: 4, size: 2, wantSizes: []int{2, 2}},
		{name: "remainder_chunk", total: 5, size: 2, wantSizes: []int{2, 2, 1}},
		{name: "zero_size_means_one_chunk", total: 5, size: 0, wantSizes: []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunkRecords(makeRecords(tt.total), tt.size)

			var sizes []int
			total := 0
			for _, c := range chunks {
				sizes = append(sizes, len(c))
				total += len(c)
			}
			assert.Equal(t, tt.wantSizes, sizes)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestClassifySinkError(t *testing.T) {
	rejected := classifySinkError(&clickhouse.Exception{Code: 60, Message: "table does not exist"})
	assert.ErrorIs(t, rejected, domain.ErrSinkRejected)

	unavailable := classifySinkError(errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, unavailable, domain.ErrSinkUnavailable)
}
