package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"gridday/internal/platform/store"
	"gridday/internal/services/aggregate/domain"
)

type cmdTag string

func (t cmdTag) String() string    { return string(t) }
func (cmdTag) RowsAffected() int64 { return 1 }

type fakeQ struct {
	sql  string
	args []any
	rows *fakeRows
	err  error
}

func (f *fakeQ) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	f.sql, f.args = sql, args
	return cmdTag("UPDATE 1"), f.err
}

func (f *fakeQ) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	f.sql, f.args = sql, args
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeQ) QueryRow(context.Context, string, ...any) store.Row { return nil }

type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Next() bool { r.i++; return r.i <= len(r.data) }

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	for j, d := range dest {
		switch v := d.(type) {
		case *time.Time:
			*v = row[j].(time.Time)
		case *string:
			*v = row[j].(string)
		}
	}
	return nil
}

func (r *fakeRows) Err() error        { return nil }
func (r *fakeRows) Close()            {}
func (r *fakeRows) Columns() []string { return nil }

func TestTasksForDay(t *testing.T) {
	hour := time.Date(2024, 6, 11, 22, 0, 0, 0, time.FixedZone("UTC+0", 0))
	q := &fakeQ{rows: &fakeRows{data: [][]any{
		{hour, "success", "grids/h1.json", "results/h1.json", ""},
		{hour.Add(time.Hour), "failed", "", "", "solver diverged"},
	}}}

	tasks, err := NewPG().Bind(q).TasksForDay(context.Background(),
		hour, hour.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("TasksForDay: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d", len(tasks))
	}
	if !strings.Contains(q.sql, "FROM optimization_tasks") {
		t.Fatalf("unexpected sql: %s", q.sql)
	}
	if got := tasks[0]; got.Status != domain.StatusSuccess || got.GridKey != "grids/h1.json" {
		t.Fatalf("task 0 = %+v", got)
	}
	if got := tasks[0].Hour; got.Location() != time.UTC {
		t.Fatalf("hour must be normalized to UTC, got %v", got.Location())
	}
	if got := tasks[1]; got.Status != domain.StatusFailed || got.ErrText != "solver diverged" {
		t.Fatalf("task 1 = %+v", got)
	}
}

func TestStartFinishRunSQL(t *testing.T) {
	q := &fakeQ{}
	r := NewPG().Bind(q)
	day := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	if err := r.StartRun(context.Background(), "run-1", day, 2); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if !strings.Contains(q.sql, "ON CONFLICT (run_id)") {
		t.Fatalf("StartRun must be idempotent: %s", q.sql)
	}

	fin := domain.RunFinish{Status: "ok", HoursTotal: 24, HoursSuccess: 23, HoursFailed: 1, ElapsedMS: 1200}
	if err := r.FinishRun(context.Background(), "run-1", fin); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if !strings.Contains(q.sql, "UPDATE aggregation_runs") {
		t.Fatalf("unexpected sql: %s", q.sql)
	}
	if len(q.args) != 7 || q.args[1] != "ok" || q.args[2] != 24 {
		t.Fatalf("args = %#v", q.args)
	}
}
