// Package service implements the daily aggregation run
package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"gridday/internal/adapters/resultio"
	"gridday/internal/core/cluster"
	"gridday/internal/core/document"
	"gridday/internal/core/interval"
	"gridday/internal/core/naming"
	"gridday/internal/core/snapshot"
	"gridday/internal/modkit/repokit"
	perr "gridday/internal/platform/errors"
	"gridday/internal/platform/logger"
	"gridday/internal/services/aggregate/domain"
	"gridday/internal/services/aggregate/guardrails"
	pubdom "gridday/internal/services/publish/domain"
	pubsvc "gridday/internal/services/publish/service"

	"github.com/google/uuid"
)

// Config holds configuration options for the aggregation service
type Config struct {
	// Concurrency
	Workers int // parallel hour resolutions; <=0 -> 1

	// Fetch-level retry
	MaxRetries int           // attempts per fetch; <=0 -> 1
	RetryBase  time.Duration // base backoff; <=0 -> 500ms

	// Timeouts applied via guardrails
	RunTimeout   time.Duration
	FetchTimeout time.Duration
	DBTimeout    time.Duration

	// ReferenceKeyFmt locates the day's reference structural document,
	// formatted with the day as 2006-01-02
	ReferenceKeyFmt string
}

// Service implements the aggregation service
type Service struct {
	DB        repokit.TxRunner
	Binder    repokit.Binder[domain.StorageRepo]
	Blob      domain.BlobPort
	Publisher pubdom.PublisherPort
	Metrics   domain.MetricsSink // optional
	Cfg       Config

	// seams for tests
	now      func() time.Time
	newRunID func() string
}

// New constructs the aggregation service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	blob domain.BlobPort,
	publisher pubdom.PublisherPort,
	metrics domain.MetricsSink,
	cfg Config,
) *Service {
	if db == nil {
		panic("aggregate.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("aggregate.Service requires a non nil Repo binder")
	}
	if blob == nil {
		panic("aggregate.Service requires a non nil BlobPort")
	}
	if publisher == nil {
		panic("aggregate.Service requires a non nil PublisherPort")
	}
	if cfg.ReferenceKeyFmt == "" {
		cfg.ReferenceKeyFmt = "inbox/%s/reference.json"
	}
	return &Service{
		DB: db, Binder: binder,
		Blob: blob, Publisher: publisher, Metrics: metrics,
		Cfg:      cfg,
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
	}
}

// RunDay implements domain.RunnerPort: it consolidates every hourly
// optimization outcome of the business day into the daily artifact set and
// publishes it
func (s *Service) RunDay(ctx context.Context, day time.Time, version int) (domain.RunReport, error) {
	span, err := interval.BusinessDay(day)
	if err != nil {
		return domain.RunReport{}, err
	}
	slots, err := interval.Positions(span)
	if err != nil {
		return domain.RunReport{}, err
	}

	tos := guardrails.Timeouts{Run: s.Cfg.RunTimeout, Fetch: s.Cfg.FetchTimeout, DB: s.Cfg.DBTimeout}
	runCtx, runCancel := guardrails.WithRun(ctx, tos)
	defer runCancel()

	runID := s.newRunID()
	runCtx = logger.WithRun(runCtx, runID, day.Format("2006-01-02"))
	report := domain.RunReport{RunID: runID, Day: span, Version: version}

	// Registry gate: every requested hour must be terminal before the day
	// can be consolidated
	tasks, err := s.loadTasks(runCtx, span, tos)
	if err != nil {
		return report, err
	}
	// keyed by unix seconds so the driver's timestamp location cannot
	// break slot lookup
	byHour := make(map[int64]domain.HourTask, len(tasks))
	for _, t := range tasks {
		if !t.Terminal() {
			return report, perr.Conflictf("hourly task %s still %s", t.Hour.Format(time.RFC3339), t.Status)
		}
		byHour[t.Hour.Unix()] = t
	}

	startWall := s.now()
	if err := s.startRun(runCtx, runID, day, version, tos); err != nil {
		return report, err
	}

	var retErr error
	defer func() {
		s.finishRun(runCtx, runID, startWall, slots, byHour, tos, retErr)
	}()

	refKey := fmt.Sprintf(s.Cfg.ReferenceKeyFmt, day.Format("2006-01-02"))
	refData, err := s.fetchWithRetry(runCtx, refKey, tos)
	if err != nil {
		retErr = perr.Wrapf(err, perr.CodeOf(err), "reference document %s", refKey)
		return report, retErr
	}
	ref, err := resultio.ParseReference(refData)
	if err != nil {
		retErr = err
		return report, retErr
	}

	// Resolve all hours in parallel; failures demote an hour to the
	// fallback path rather than aborting the day
	outcomes := make([]domain.HourOutcome, len(slots))
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(max(s.Cfg.Workers, 1))
	for i, slot := range slots {
		g.Go(func() error {
			out, err := s.runHour(gctx, ref, slot, byHour, tos)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		retErr = err
		return report, retErr
	}

	hours := make([]snapshot.HourRecords, len(outcomes))
	for i, o := range outcomes {
		hours[i] = o.Records
		report.Hours = append(report.Hours, document.HourStatus{
			Span:   o.Slot.Span,
			Kind:   o.Kind,
			Reason: o.Reason,
		})
	}

	recs, err := cluster.Clusterize(span, hours)
	if err != nil {
		// a coverage hole is an invariant violation, the day must not ship
		retErr = perr.Wrap(err, perr.ErrorCodeInvariant, "daily clustering")
		return report, retErr
	}

	createdAt := s.now().UTC()
	artifacts, err := s.buildArtifacts(day, span, version, createdAt, startWall, recs, outcomes, report.Hours)
	if err != nil {
		retErr = err
		return report, retErr
	}

	keys, err := s.Publisher.PublishDay(runCtx, day, version, artifacts)
	report.Published = keys
	if err != nil {
		retErr = err
		return report, retErr
	}

	if s.Metrics != nil {
		if err := s.Metrics.RecordRun(runCtx, runID, day, outcomes); err != nil {
			logger.C(runCtx).Warn().Err(err).Msg("aggregate: metrics sink failed")
		}
	}

	logger.C(runCtx).Info().
		Int("hours", len(slots)).
		Int("artifacts", len(keys)).
		Msg("aggregate: day published")
	return report, nil
}

// runHour resolves a single slot to its record set. Registry failures and
// unobtainable success inputs both land on the reference fallback; only
// broken reference data aborts the run.
func (s *Service) runHour(
	ctx context.Context,
	ref snapshot.ReferenceDocument,
	slot interval.Slot,
	byHour map[int64]domain.HourTask,
	tos guardrails.Timeouts,
) (domain.HourOutcome, error) {
	start := time.Now()
	out := domain.HourOutcome{Slot: slot}

	task, requested := byHour[slot.Span.Start.Unix()]
	switch {
	case !requested:
		out.Kind = snapshot.KindNotRequested
	case task.Status == domain.StatusFailed:
		out.Kind = snapshot.KindFailed
		out.Reason = task.ErrText
	default:
		recs, grid, err := s.runSuccessHour(ctx, ref, slot, task, tos)
		if err != nil {
			logger.C(ctx).Warn().
				Int("position", slot.Position).
				Err(err).
				Msg("aggregate: success hour demoted to fallback")
			out.Kind = snapshot.KindFailed
			out.Reason = perr.Root(err).Error()
			break
		}
		out.Kind = snapshot.KindSuccess
		out.Records = recs
		out.GridData = grid
		out.DurationMS = int(time.Since(start).Milliseconds())
		return out, nil
	}

	recs, err := snapshot.Fallback(ref, slot)
	if err != nil {
		return domain.HourOutcome{}, err
	}
	out.Records = recs
	out.DurationMS = int(time.Since(start).Milliseconds())
	return out, nil
}

func (s *Service) runSuccessHour(
	ctx context.Context,
	ref snapshot.ReferenceDocument,
	slot interval.Slot,
	task domain.HourTask,
	tos guardrails.Timeouts,
) (snapshot.HourRecords, []byte, error) {
	gridData, err := s.fetchWithRetry(ctx, task.GridKey, tos)
	if err != nil {
		return snapshot.HourRecords{}, nil, err
	}
	resultData, err := s.fetchWithRetry(ctx, task.ResultKey, tos)
	if err != nil {
		return snapshot.HourRecords{}, nil, err
	}

	model, err := resultio.ParseGridModel(gridData)
	if err != nil {
		return snapshot.HourRecords{}, nil, err
	}
	result, err := resultio.ParseResult(resultData)
	if err != nil {
		return snapshot.HourRecords{}, nil, err
	}

	in, err := resultio.ResolveInputs(ref, model, result, slot)
	if err != nil {
		return snapshot.HourRecords{}, nil, err
	}
	recs, err := snapshot.Generate(in, slot)
	if err != nil {
		return snapshot.HourRecords{}, nil, err
	}
	return recs, gridData, nil
}

// buildArtifacts renders the five daily artifacts with one shared creation
// timestamp so reruns over identical inputs yield identical bytes
func (s *Service) buildArtifacts(
	day time.Time,
	span interval.Span,
	version int,
	createdAt, requestAt time.Time,
	recs cluster.DayRecords,
	outcomes []domain.HourOutcome,
	statuses []document.HourStatus,
) ([]pubdom.Artifact, error) {
	docXML, err := document.Assemble(day, span, version, createdAt, recs).Bytes()
	if err != nil {
		return nil, err
	}
	respXML, err := document.BuildResponse(day, version, createdAt, statuses).Bytes()
	if err != nil {
		return nil, err
	}

	overall := "ok"
	var hourInfos []document.HourInfo
	for _, o := range outcomes {
		if o.Kind == snapshot.KindFailed {
			overall = "partial"
		}
		hourInfos = append(hourInfos, document.HourInfo{
			Span:       o.Slot.Span,
			Status:     o.Kind.String(),
			DurationMS: o.DurationMS,
		})
	}
	metaCSV, err := document.RenderMetadata(document.BuildMetadata(document.RunInfo{
		Day:        span,
		RequestAt:  requestAt,
		ResponseAt: createdAt,
		Status:     overall,
		Hours:      hourInfos,
	}))
	if err != nil {
		return nil, err
	}

	modelsZip, err := s.buildModelsBundle(outcomes, version, createdAt)
	if err != nil {
		return nil, err
	}
	reportZip, err := pubsvc.Zip([]pubdom.ZipEntry{
		{Name: naming.FileName(day, naming.ArtifactMetadata, version), Data: metaCSV},
		{Name: naming.FileName(day, naming.ArtifactResponse, version), Data: respXML},
	}, createdAt)
	if err != nil {
		return nil, err
	}

	return []pubdom.Artifact{
		{Name: naming.FileName(day, naming.ArtifactConstraints, version), Data: docXML, ContentType: "application/xml"},
		{Name: naming.FileName(day, naming.ArtifactResponse, version), Data: respXML, ContentType: "application/xml"},
		{Name: naming.FileName(day, naming.ArtifactMetadata, version), Data: metaCSV, ContentType: "text/csv"},
		{Name: naming.FileName(day, naming.ArtifactModels, version), Data: modelsZip, ContentType: "application/zip"},
		{Name: naming.FileName(day, naming.ArtifactReport, version), Data: reportZip, ContentType: "application/zip"},
	}, nil
}

// buildModelsBundle names each successful hour's grid model by its local
// wall clock; the second occurrence of a repeated wall-clock hour on a
// 25-hour day takes the sentinel tens digit
func (s *Service) buildModelsBundle(outcomes []domain.HourOutcome, version int, createdAt time.Time) ([]byte, error) {
	seen := map[string]bool{}
	var entries []pubdom.ZipEntry
	for _, o := range outcomes {
		if o.Kind != snapshot.KindSuccess {
			continue
		}
		local, err := interval.WallClock(o.Slot.Span.Start)
		if err != nil {
			return nil, err
		}
		hh := local.Format("15")
		dup := seen[hh]
		seen[hh] = true
		entries = append(entries, pubdom.ZipEntry{
			Name: naming.GridModelName(local, dup, version),
			Data: o.GridData,
		})
	}
	return pubsvc.Zip(entries, createdAt)
}

// fetchWithRetry reads one object with exponential backoff on transient
// failures; missing objects and malformed keys return immediately
func (s *Service) fetchWithRetry(ctx context.Context, key string, tos guardrails.Timeouts) ([]byte, error) {
	if key == "" {
		return nil, perr.InvalidArgf("empty object key")
	}
	attempts := max(s.Cfg.MaxRetries, 1)
	base := s.Cfg.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	var last error
	for i := range attempts {
		fetchCtx, cancel := guardrails.ForFetch(ctx, tos)
		data, err := s.Blob.Fetch(fetchCtx, key)
		cancel()
		if err == nil {
			return data, nil
		}
		last = err

		if !perr.Retryable(err) && perr.CodeOf(err) != perr.ErrorCodeUnavailable {
			return nil, last
		}
		if i == attempts-1 {
			break
		}

		// Exponential backoff with jitter, cap at 30s
		d := min(base<<i, 30*time.Second)
		if d < 2*time.Millisecond {
			d = 2 * time.Millisecond
		}
		j := d/2 + time.Duration(rand.Int63n(int64(d/2)))
		if se := sleepCtx(ctx, j); se != nil {
			return nil, se
		}
	}
	return nil, last
}

func (s *Service) loadTasks(ctx context.Context, span interval.Span, tos guardrails.Timeouts) ([]domain.HourTask, error) {
	var tasks []domain.HourTask
	dbCtx, cancel := guardrails.ForDB(ctx, tos)
	defer cancel()
	err := repokit.WithTx(dbCtx, s.DB, func(q repokit.Queryer) error {
		ts, e := s.Binder.Bind(q).TasksForDay(dbCtx, span.Start, span.End)
		if e != nil {
			return e
		}
		tasks = ts
		return nil
	})
	return tasks, err
}

func (s *Service) startRun(ctx context.Context, runID string, day time.Time, version int, tos guardrails.Timeouts) error {
	dbCtx, cancel := guardrails.ForDB(ctx, tos)
	defer cancel()
	return repokit.WithTx(dbCtx, s.DB, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).StartRun(dbCtx, runID, day, version)
	})
}

// finishRun is best effort bookkeeping; it never masks the run error
func (s *Service) finishRun(
	ctx context.Context,
	runID string,
	startWall time.Time,
	slots []interval.Slot,
	byHour map[int64]domain.HourTask,
	tos guardrails.Timeouts,
	runErr error,
) {
	var success, failed int
	for _, slot := range slots {
		t, ok := byHour[slot.Span.Start.Unix()]
		if !ok {
			continue
		}
		if t.Status == domain.StatusSuccess {
			success++
		} else {
			failed++
		}
	}
	fin := domain.RunFinish{
		Status:       "ok",
		HoursTotal:   len(slots),
		HoursSuccess: success,
		HoursFailed:  failed,
		ElapsedMS:    int(time.Since(startWall).Milliseconds()),
	}
	if runErr != nil {
		fin.Status = "error"
		fin.ErrText = runErr.Error()
	}

	dbCtx, cancel := guardrails.ForDB(ctx, tos)
	defer cancel()
	if err := repokit.WithTx(dbCtx, s.DB, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).FinishRun(dbCtx, runID, fin)
	}); err != nil {
		logger.C(ctx).Error().Err(err).Msg("aggregate: finish bookkeeping failed")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
