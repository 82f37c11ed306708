// Package guardrails holds cross cutting safety helpers for aggregation runs
package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for one aggregation run.
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Run is the overall time budget for one business day
	Run time.Duration

	// Fetch caps one object storage fetch
	Fetch time.Duration

	// DB caps one bookkeeping write
	DB time.Duration
}

// WithRun returns a context limited by the run budget without extending any parent deadline.
// if Run is zero it returns a cancelable child that simply inherits the parent deadline
func WithRun(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Run)
}

// ForFetch returns a sub context for one fetch bounded by Fetch and any remaining parent budget
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Fetch)
}

// ForDB returns a sub context for a db phase bounded by DB and any remaining parent budget
func ForDB(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.DB)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of the requested duration and any parent remainder.
// Never extends the parent deadline
// When d is zero it returns a simple cancelable child inheriting the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
