package service

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"gridday/internal/adapters/blob"
	"gridday/internal/core/interval"
	"gridday/internal/core/snapshot"
	"gridday/internal/modkit/repokit"
	perr "gridday/internal/platform/errors"
	"gridday/internal/platform/store"
	"gridday/internal/platform/testkit"
	"gridday/internal/services/aggregate/domain"
	pubdom "gridday/internal/services/publish/domain"
)

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (fakeDB) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) store.Row             { return nil }
func (f fakeDB) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	return fn(f)
}

type fakeRepo struct {
	tasks []domain.HourTask

	started  bool
	startDay time.Time
	finished bool
	fin      domain.RunFinish
}

func (r *fakeRepo) TasksForDay(_ context.Context, _, _ time.Time) ([]domain.HourTask, error) {
	return r.tasks, nil
}

func (r *fakeRepo) StartRun(_ context.Context, _ string, day time.Time, _ int) error {
	r.started, r.startDay = true, day
	return nil
}

func (r *fakeRepo) FinishRun(_ context.Context, _ string, fin domain.RunFinish) error {
	r.finished, r.fin = true, fin
	return nil
}

type fakePublisher struct {
	artifacts []pubdom.Artifact
	calls     int
}

func (p *fakePublisher) PublishDay(_ context.Context, _ time.Time, _ int, arts []pubdom.Artifact) ([]string, error) {
	p.calls++
	p.artifacts = arts
	keys := make([]string, len(arts))
	for i, a := range arts {
		keys[i] = a.Name
	}
	return keys, nil
}

type fakeSink struct {
	runID string
	rows  int
	err   error
}

func (s *fakeSink) RecordRun(_ context.Context, runID string, _ time.Time, outcomes []domain.HourOutcome) error {
	s.runID = runID
	s.rows = len(outcomes)
	return s.err
}

const testRefJSON = `{"elements":[
  {"id":"CB1","name":"Line A","outage":"CO1",
   "window":"2024-06-11T22:00:00Z/2024-06-12T22:00:00Z",
   "permanentA":1500,"temporaryA":1800}
]}`

const testGridJSON = `{"caseId":"case-0612","elements":["CB1"]}`

const testResultJSON = `{"states":[
  {"outage":"CO1","instant":"curative",
   "networkActions":[{"name":"topo-1","operator":"FR"}]}
]}`

// day is CEST, so the business window runs 22:00Z to 22:00Z
var (
	testDay   = time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	testHour1 = time.Date(2024, 6, 11, 22, 0, 0, 0, time.UTC)
	testHour2 = time.Date(2024, 6, 11, 23, 0, 0, 0, time.UTC)
)

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher, sink domain.MetricsSink) (*Service, *blob.Memory) {
	t.Helper()
	mem := blob.NewMemory()
	ctx := context.Background()
	if err := mem.Put(ctx, "inbox/2024-06-12/reference.json", []byte(testRefJSON), "application/json"); err != nil {
		t.Fatalf("seed reference: %v", err)
	}
	if err := mem.Put(ctx, "grids/h1.json", []byte(testGridJSON), "application/json"); err != nil {
		t.Fatalf("seed grid: %v", err)
	}
	if err := mem.Put(ctx, "results/h1.json", []byte(testResultJSON), "application/json"); err != nil {
		t.Fatalf("seed result: %v", err)
	}

	binder := repokit.BindFunc[domain.StorageRepo](func(repokit.Queryer) domain.StorageRepo { return repo })
	svc := New(fakeDB{}, binder, mem, pub, sink, Config{Workers: 4, MaxRetries: 1})
	svc.now = func() time.Time {
		return time.Date(2024, 6, 13, 8, 30, 0, 0, time.UTC)
	}
	svc.newRunID = func() string { return "run-0001" }
	return svc, mem
}

func terminalTasks() []domain.HourTask {
	return []domain.HourTask{
		{Hour: testHour1, Status: domain.StatusSuccess, GridKey: "grids/h1.json", ResultKey: "results/h1.json"},
		{Hour: testHour2, Status: domain.StatusFailed, ErrText: "solver diverged"},
	}
}

func TestRunDayPublishesArtifacts(t *testing.T) {
	repo := &fakeRepo{tasks: terminalTasks()}
	pub := &fakePublisher{}
	sink := &fakeSink{}
	svc, _ := newTestService(t, repo, pub, sink)

	report, err := svc.RunDay(context.Background(), testDay, 1)
	if err != nil {
		t.Fatalf("RunDay: %v", err)
	}
	if report.RunID != "run-0001" {
		t.Fatalf("run id = %q", report.RunID)
	}
	if len(report.Hours) != 24 {
		t.Fatalf("hours = %d, want 24", len(report.Hours))
	}
	if got := report.Hours[0].Kind; got != snapshot.KindSuccess {
		t.Fatalf("hour 1 kind = %v, want success", got)
	}
	if got := report.Hours[1]; got.Kind != snapshot.KindFailed || got.Reason != "solver diverged" {
		t.Fatalf("hour 2 = %+v", got)
	}
	if got := report.Hours[2].Kind; got != snapshot.KindNotRequested {
		t.Fatalf("hour 3 kind = %v, want not requested", got)
	}

	if len(report.Published) != 5 {
		t.Fatalf("published %d keys, want 5: %v", len(report.Published), report.Published)
	}
	for i, a := range pub.artifacts {
		if a.Name == "" || len(a.Data) == 0 {
			t.Fatalf("artifact %d incomplete: %+v", i, a.Name)
		}
	}

	if !repo.started || !repo.finished {
		t.Fatalf("bookkeeping: started=%v finished=%v", repo.started, repo.finished)
	}
	if repo.fin.Status != "ok" || repo.fin.HoursTotal != 24 || repo.fin.HoursSuccess != 1 || repo.fin.HoursFailed != 1 {
		t.Fatalf("finish = %+v", repo.fin)
	}
	if sink.rows != 24 || sink.runID != "run-0001" {
		t.Fatalf("metrics: rows=%d run=%q", sink.rows, sink.runID)
	}
}

func TestRunDayDeterministicBytes(t *testing.T) {
	var first [][]byte
	for i := range 2 {
		repo := &fakeRepo{tasks: terminalTasks()}
		pub := &fakePublisher{}
		svc, _ := newTestService(t, repo, pub, nil)
		if _, err := svc.RunDay(context.Background(), testDay, 2); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		// the metadata table and the report bundle record measured
		// durations; byte identity holds for the regulatory artifacts
		data := [][]byte{pub.artifacts[0].Data, pub.artifacts[1].Data, pub.artifacts[3].Data}
		if i == 0 {
			first = data
			continue
		}
		for j := range data {
			if !bytes.Equal(first[j], data[j]) {
				t.Fatalf("artifact %d differs between identical runs", j)
			}
		}
	}
}

func TestRunDayRejectsNonTerminalHours(t *testing.T) {
	repo := &fakeRepo{tasks: []domain.HourTask{
		{Hour: testHour1, Status: domain.StatusRunning},
	}}
	svc, _ := newTestService(t, repo, &fakePublisher{}, nil)

	_, err := svc.RunDay(context.Background(), testDay, 1)
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if repo.started {
		t.Fatal("run must not start while hours are pending")
	}
}

func TestRunDayDemotesUnfetchableSuccessHour(t *testing.T) {
	tasks := terminalTasks()
	tasks[0].GridKey = "grids/absent.json"
	repo := &fakeRepo{tasks: tasks}
	pub := &fakePublisher{}
	svc, _ := newTestService(t, repo, pub, nil)

	report, err := svc.RunDay(context.Background(), testDay, 1)
	if err != nil {
		t.Fatalf("RunDay: %v", err)
	}
	if got := report.Hours[0].Kind; got != snapshot.KindFailed {
		t.Fatalf("hour 1 kind = %v, want failed after fetch miss", got)
	}
	if report.Hours[0].Reason == "" {
		t.Fatal("demoted hour must carry a reason")
	}
	if pub.calls != 1 {
		t.Fatal("day must still publish on the fallback path")
	}
}

func TestModelsBundleSentinelOnRepeatedWallClockHour(t *testing.T) {
	// 2023-10-29 is the 25-hour day: 02:00 local occurs at both 00:00Z
	// (summer time) and 01:00Z (winter time)
	first := time.Date(2023, 10, 29, 0, 0, 0, 0, time.UTC)
	second := time.Date(2023, 10, 29, 1, 0, 0, 0, time.UTC)
	outcomes := []domain.HourOutcome{
		{
			Slot:     interval.Slot{Position: 3, Span: interval.NewSpan(first, first.Add(time.Hour))},
			Kind:     snapshot.KindSuccess,
			GridData: []byte("summer-grid"),
		},
		{
			Slot:     interval.Slot{Position: 4, Span: interval.NewSpan(second, second.Add(time.Hour))},
			Kind:     snapshot.KindSuccess,
			GridData: []byte("winter-grid"),
		},
	}

	svc := &Service{}
	data, err := svc.buildModelsBundle(outcomes, 1, time.Date(2023, 10, 30, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("buildModelsBundle: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		got[f.Name] = string(body)
	}

	if len(got) != 2 {
		t.Fatalf("bundle holds %d entries: %v", len(got), got)
	}
	if got["20231029_0230_2D7_UX01.uct"] != "summer-grid" {
		t.Fatalf("first 02:00 entry wrong: %v", got)
	}
	if got["20231029_B230_2D7_UX01.uct"] != "winter-grid" {
		t.Fatalf("repeated 02:00 entry must carry the sentinel: %v", got)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	binder := repokit.BindFunc[domain.StorageRepo](func(repokit.Queryer) domain.StorageRepo { return &fakeRepo{} })
	mem := blob.NewMemory()
	pub := &fakePublisher{}

	testkit.MustPanic(t, func() { New(nil, binder, mem, pub, nil, Config{}) })
	testkit.MustPanic(t, func() { New(fakeDB{}, nil, mem, pub, nil, Config{}) })
	testkit.MustPanic(t, func() { New(fakeDB{}, binder, nil, pub, nil, Config{}) })
	testkit.MustPanic(t, func() { New(fakeDB{}, binder, mem, nil, nil, Config{}) })
	testkit.MustNotPanic(t, func() { New(fakeDB{}, binder, mem, pub, nil, Config{}) })
}

func TestRunDayMetricsFailureIsNonFatal(t *testing.T) {
	repo := &fakeRepo{tasks: terminalTasks()}
	sink := &fakeSink{err: perr.Unavailablef("clickhouse down")}
	svc, _ := newTestService(t, repo, &fakePublisher{}, sink)

	if _, err := svc.RunDay(context.Background(), testDay, 1); err != nil {
		t.Fatalf("RunDay: %v", err)
	}
	if sink.rows != 24 {
		t.Fatalf("sink rows = %d", sink.rows)
	}
}
