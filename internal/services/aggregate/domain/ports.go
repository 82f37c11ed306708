package domain

import (
	"context"
	"time"

	pubdom "gridday/internal/services/publish/domain"
)

// Ports are the cross module collaborators the aggregation module needs
// injected at build time
type Ports struct {
	Blob      BlobPort
	Publisher pubdom.PublisherPort
}

// RunnerPort is the public port exposed by the module (what other modules
// and the binary entrypoint call)
type RunnerPort interface {
	RunDay(ctx context.Context, day time.Time, version int) (RunReport, error)
}

// StorageRepo is the postgres surface: hourly task registry reads plus run
// bookkeeping writes
type StorageRepo interface {
	// TasksForDay returns the registry rows whose hour falls inside the day
	TasksForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]HourTask, error)

	// StartRun records the beginning of an aggregation run (idempotent)
	StartRun(ctx context.Context, runID string, day time.Time, version int) error

	// FinishRun records the end of an aggregation run
	FinishRun(ctx context.Context, runID string, fin RunFinish) error
}

// BlobPort fetches run inputs and is implemented by the blob adapter
type BlobPort interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// MetricsSink records per-hour run metrics, best effort
type MetricsSink interface {
	RecordRun(ctx context.Context, runID string, day time.Time, outcomes []HourOutcome) error
}
