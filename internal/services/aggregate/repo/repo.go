// Package repo provides postgres access for aggregation runs
package repo

import (
	"context"
	"time"

	"gridday/internal/modkit/repokit"
	perr "gridday/internal/platform/errors"
	"gridday/internal/services/aggregate/domain"
)

type (
	// PG is a Postgres binder for domain.StorageRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.StorageRepo { return &queries{q: q} }

// TasksForDay reads the hourly registry rows covering [dayStart, dayEnd)
func (r *queries) TasksForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]domain.HourTask, error) {
	rows, err := r.q.Query(ctx, `
		SELECT hour_utc, status, COALESCE(grid_key,''), COALESCE(result_key,''), COALESCE(error,'')
		FROM optimization_tasks
		WHERE hour_utc >= $1 AND hour_utc < $2
		ORDER BY hour_utc
	`, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, perr.FromPostgres(err, "select optimization tasks")
	}
	defer rows.Close()

	var out []domain.HourTask
	for rows.Next() {
		var t domain.HourTask
		if err := rows.Scan(&t.Hour, &t.Status, &t.GridKey, &t.ResultKey, &t.ErrText); err != nil {
			return nil, perr.FromPostgres(err, "scan optimization task")
		}
		t.Hour = t.Hour.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// StartRun marks the start of an aggregation run (idempotent)
func (r *queries) StartRun(ctx context.Context, runID string, day time.Time, version int) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO aggregation_runs (run_id, day_utc, version, started_at, status)
		VALUES ($1, $2, $3, now(), 'running')
		ON CONFLICT (run_id) DO UPDATE
		SET started_at = now(), status = 'running', error = null, finished_at = null
	`, runID, day.UTC(), version)
	return perr.FromPostgres(err, "start aggregation run")
}

// FinishRun marks the end of an aggregation run (idempotent)
func (r *queries) FinishRun(ctx context.Context, runID string, fin domain.RunFinish) error {
	_, err := r.q.Exec(ctx, `
		UPDATE aggregation_runs SET
			finished_at = now(),
			status = $2,
			hours_total = $3,
			hours_success = $4,
			hours_failed = $5,
			elapsed_ms = $6,
			error = NULLIF($7,'')
		WHERE run_id = $1
	`, runID, fin.Status, fin.HoursTotal, fin.HoursSuccess, fin.HoursFailed, fin.ElapsedMS, fin.ErrText)
	return perr.FromPostgres(err, "finish aggregation run")
}
