package metrics

import (
	"context"
	"testing"
	"time"

	"gridday/internal/core/interval"
	"gridday/internal/core/snapshot"
	"gridday/internal/platform/store"
	"gridday/internal/services/aggregate/domain"
)

type fakeCH struct {
	table string
	data  any
}

func (f *fakeCH) Insert(_ context.Context, table string, data any) error {
	f.table, f.data = table, data
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeCH) Close() error                                              { return nil }

func TestRecordRun(t *testing.T) {
	ch := &fakeCH{}
	sink := NewSink(ch)

	start := time.Date(2024, 6, 11, 22, 0, 0, 0, time.UTC)
	outcomes := []domain.HourOutcome{
		{
			Slot:       interval.Slot{Position: 1, Span: interval.NewSpan(start, start.Add(time.Hour))},
			Kind:       snapshot.KindSuccess,
			DurationMS: 42,
		},
		{
			Slot: interval.Slot{Position: 2, Span: interval.NewSpan(start.Add(time.Hour), start.Add(2*time.Hour))},
			Kind: snapshot.KindFailed,
		},
	}
	day := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	if err := sink.RecordRun(context.Background(), "run-7", day, outcomes); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if ch.table != Table {
		t.Fatalf("table = %q", ch.table)
	}
	rows, ok := ch.data.([][]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("data = %#v", ch.data)
	}
	if rows[0][0] != "run-7" || rows[0][3] != "success" || rows[1][3] != "failed" {
		t.Fatalf("rows = %#v", rows)
	}
}

func TestRecordRunEmpty(t *testing.T) {
	ch := &fakeCH{}
	if err := NewSink(ch).RecordRun(context.Background(), "run-8", time.Now(), nil); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if ch.table != "" {
		t.Fatal("empty run must not insert")
	}
}
