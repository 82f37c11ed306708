// Package metrics ships per-hour aggregation stats to ClickHouse
package metrics

import (
	"context"
	"time"

	"gridday/internal/platform/store"
	"gridday/internal/services/aggregate/domain"
)

// Table is the hour-level metrics table
const Table = "aggregation_hour_metrics"

// Sink writes one row per resolved hour. Failures are reported to the
// caller, which treats them as non fatal.
type Sink struct {
	ch store.Clickhouse
}

// NewSink constructs a Sink over an open ClickHouse seam
func NewSink(ch store.Clickhouse) *Sink {
	if ch == nil {
		panic("metrics.Sink requires a non nil Clickhouse")
	}
	return &Sink{ch: ch}
}

// RecordRun implements domain.MetricsSink
func (s *Sink) RecordRun(ctx context.Context, runID string, day time.Time, outcomes []domain.HourOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []any{
			runID,
			day.UTC(),
			int32(o.Slot.Position),
			o.Kind.String(),
			int64(o.DurationMS),
		})
	}
	return s.ch.Insert(ctx, Table, rows)
}
