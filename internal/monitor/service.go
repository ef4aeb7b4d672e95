// Package monitor runs poll cycles: fetch every target, extract and
// fingerprint its content, decide what changed, persist and notify.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/datastore"
	"github.com/aleister1102/pagemonitor/internal/extractor"
	"github.com/aleister1102/pagemonitor/internal/fetcher"
	"github.com/aleister1102/pagemonitor/internal/metrics"
	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/aleister1102/pagemonitor/internal/notifier"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Fetcher retrieves a target, honoring cache validators. A 304 answer is
// reported as common.ErrNotModified alongside a non-nil result.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string, validators models.CacheValidators) (*fetcher.Result, error)
}

// Dispatcher hands a cycle's events to the notification channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []models.ChangeEvent) (notifier.DispatchResult, error)
}

// Archiver keeps a history of change events.
type Archiver interface {
	Write(ctx context.Context, cycleID string, cycleTime time.Time, events []models.ChangeEvent) (string, error)
}

// CycleHistory records when cycles ran and how they ended.
type CycleHistory interface {
	RecordCycleStart(ctx context.Context, cycleID string, numTargets int, startTime time.Time) (int64, error)
	UpdateCycleCompletion(ctx context.Context, dbCycleID int64, endTime time.Time, summary datastore.CycleSummary) error
}

// CycleLoggerFunc returns the logger used for one cycle and a function
// releasing it. The logger is expected to carry the cycle_id field.
type CycleLoggerFunc func(cycleID string) (zerolog.Logger, func(), error)

// Dependencies are the collaborators of a Service. Fetcher, Extractor and
// Store are required; the others may be nil.
type Dependencies struct {
	Fetcher       Fetcher
	Extractor     *extractor.Extractor
	Store         datastore.SnapshotStore
	Notifications Dispatcher
	Archive       Archiver
	History       CycleHistory
	Metrics       *metrics.Recorder
	CycleLogger   CycleLoggerFunc
}

// Options tune how a cycle runs.
type Options struct {
	MaxConcurrentChecks int
	// BypassCache stops sending stored validators, forcing full responses.
	BypassCache bool
}

// TargetResult is the outcome of one target within a cycle.
type TargetResult struct {
	Target      models.Target
	Outcome     models.Outcome
	Fingerprint string
	Err         error
}

// CycleReport summarizes one RunCycle call.
type CycleReport struct {
	CycleID      string
	StartedAt    time.Time
	FinishedAt   time.Time
	Results      []TargetResult // in target order
	Events       []models.ChangeEvent
	Counts       map[models.Outcome]int
	Notification notifier.DispatchResult
	ArchivePath  string
}

// Service runs poll cycles.
type Service struct {
	deps   Dependencies
	opts   Options
	logger zerolog.Logger

	now        func() time.Time
	newCycleID func(time.Time) string
}

// NewService creates a Service.
func NewService(deps Dependencies, opts Options, logger zerolog.Logger) (*Service, error) {
	if deps.Fetcher == nil || deps.Extractor == nil || deps.Store == nil {
		return nil, common.NewValidationError("dependencies", nil, "fetcher, extractor and store are required")
	}
	if opts.MaxConcurrentChecks <= 0 {
		opts.MaxConcurrentChecks = 1
	}

	return &Service{
		deps:       deps,
		opts:       opts,
		logger:     logger.With().Str("component", "MonitoringService").Logger(),
		now:        time.Now,
		newCycleID: newCycleID,
	}, nil
}

func newCycleID(start time.Time) string {
	return fmt.Sprintf("monitor-%s-%s", start.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}

// RunCycle polls every target once. It fails only when the snapshot store
// cannot be loaded or committed; per-target failures are part of the report.
// Records are committed in a single write after all targets are done.
func (s *Service) RunCycle(ctx context.Context, targets []models.Target) (*CycleReport, error) {
	start := s.now()
	report := &CycleReport{
		CycleID:   s.newCycleID(start),
		StartedAt: start,
		Counts:    make(map[models.Outcome]int, len(models.AllOutcomes)),
	}

	log, release := s.cycleLogger(report.CycleID)
	defer release()
	log.Info().Int("targets", len(targets)).Msg("Starting monitor cycle")

	historyID := s.recordCycleStart(ctx, log, report, len(targets))

	previous, err := s.deps.Store.LoadAll(ctx)
	if err != nil {
		err = common.WrapError(err, "failed to load snapshots")
		s.finishHistory(ctx, log, historyID, report, datastore.CycleStatusFailed, err)
		return nil, err
	}

	decisions := s.pollAll(ctx, log, targets, previous)

	updates := make(map[string]models.SnapshotRecord)
	for i, decision := range decisions {
		target := targets[i]
		report.Results = append(report.Results, TargetResult{
			Target:      target,
			Outcome:     decision.Outcome,
			Fingerprint: decision.Record.Fingerprint,
			Err:         decision.Err,
		})
		report.Counts[decision.Outcome]++
		s.deps.Metrics.ObserveOutcome(decision.Outcome)
		if decision.Write {
			updates[target.ID] = decision.Record
		}
		if decision.Event != nil {
			report.Events = append(report.Events, *decision.Event)
		}
	}

	if err := s.deps.Store.PutAll(ctx, updates); err != nil {
		err = common.WrapError(err, "failed to commit snapshots")
		report.FinishedAt = s.now()
		s.finishHistory(ctx, log, historyID, report, datastore.CycleStatusFailed, err)
		return report, err
	}

	s.notify(ctx, log, report)
	s.archive(ctx, log, report)

	report.FinishedAt = s.now()
	s.deps.Metrics.ObserveCycle(len(targets), report.FinishedAt.Sub(report.StartedAt), report.FinishedAt)
	s.finishHistory(ctx, log, historyID, report, datastore.CycleStatusCompleted, nil)

	log.Info().
		Int("first_seen", report.Counts[models.OutcomeFirstSeen]).
		Int("changed", report.Counts[models.OutcomeChanged]).
		Int("unchanged", report.Counts[models.OutcomeUnchanged]).
		Int("fetch_failed", report.Counts[models.OutcomeFetchFailed]).
		Int("parse_failed", report.Counts[models.OutcomeParseFailed]).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Monitor cycle completed")
	return report, nil
}

// pollAll runs the targets through a bounded worker pool and returns the
// decisions in target order.
func (s *Service) pollAll(ctx context.Context, log zerolog.Logger, targets []models.Target, previous map[string]models.SnapshotRecord) []Decision {
	decisions := make([]Decision, len(targets))
	jobs := make(chan int)

	numWorkers := min(s.opts.MaxConcurrentChecks, len(targets))
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				target := targets[i]
				var (
					prev       *models.SnapshotRecord
					validators models.CacheValidators
				)
				if record, ok := previous[target.ID]; ok {
					prev = &record
					if !s.opts.BypassCache {
						validators = record.Validators
					}
				}
				decisions[i], _ = s.poll(ctx, log, target, prev, validators)
			}
		}()
	}

	for i := range targets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return decisions
}

// poll fetches, extracts and evaluates one target.
func (s *Service) poll(ctx context.Context, log zerolog.Logger, target models.Target, prev *models.SnapshotRecord, validators models.CacheValidators) (Decision, *extractor.Result) {
	targetLog := log.With().Str("target_id", target.ID).Str("url", target.URL).Logger()

	started := s.now()
	res, err := s.deps.Fetcher.Fetch(ctx, target.URL, validators)
	s.deps.Metrics.ObserveFetch(s.now().Sub(started))

	var (
		poll      PollResult
		extracted *extractor.Result
	)
	switch {
	case errors.Is(err, common.ErrNotModified) && res != nil:
		poll = PollResult{NotModified: true, Validators: res.Validators}
	case err != nil:
		poll = PollResult{FetchErr: err}
	default:
		extracted, err = s.deps.Extractor.Extract(extractor.Input{
			Target:      target,
			ContentType: res.ContentType,
			Body:        res.Body,
			BaseURL:     res.FinalURL,
		})
		if err != nil {
			poll = PollResult{ParseErr: err}
		} else {
			poll = PollResult{
				Validators:  res.Validators,
				Observation: extracted.Observation,
				Fingerprint: extracted.Fingerprint,
			}
		}
	}

	decision := Evaluate(target, prev, poll, s.now())

	event := targetLog.Info()
	if decision.Outcome.IsFailure() {
		event = targetLog.Warn().Err(decision.Err)
	} else if decision.Outcome == models.OutcomeUnchanged {
		event = targetLog.Debug()
	}
	event.Str("outcome", string(decision.Outcome)).Msg("Target checked")

	return decision, extracted
}

func (s *Service) notify(ctx context.Context, log zerolog.Logger, report *CycleReport) {
	if s.deps.Notifications == nil {
		return
	}
	result, err := s.deps.Notifications.Dispatch(ctx, report.Events)
	report.Notification = result
	s.deps.Metrics.ObserveNotifications(result.Sent, result.Chunks-result.Sent)
	if err != nil {
		log.Error().Err(err).Int("chunks", result.Chunks).Int("sent", result.Sent).Msg("Failed to deliver some notifications")
	}
}

func (s *Service) archive(ctx context.Context, log zerolog.Logger, report *CycleReport) {
	if s.deps.Archive == nil || len(report.Events) == 0 {
		return
	}
	path, err := s.deps.Archive.Write(ctx, report.CycleID, report.StartedAt, report.Events)
	if err != nil {
		log.Error().Err(err).Msg("Failed to archive change events")
		return
	}
	report.ArchivePath = path
}

func (s *Service) recordCycleStart(ctx context.Context, log zerolog.Logger, report *CycleReport, numTargets int) int64 {
	if s.deps.History == nil {
		return 0
	}
	id, err := s.deps.History.RecordCycleStart(ctx, report.CycleID, numTargets, report.StartedAt)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record cycle start")
		return 0
	}
	return id
}

func (s *Service) finishHistory(ctx context.Context, log zerolog.Logger, historyID int64, report *CycleReport, status string, cycleErr error) {
	if s.deps.History == nil || historyID == 0 {
		return
	}
	end := report.FinishedAt
	if end.IsZero() {
		end = s.now()
	}
	summary := datastore.CycleSummary{
		Status:        status,
		Counts:        report.Counts,
		Notifications: report.Notification.Sent,
		ArchivePath:   report.ArchivePath,
	}
	if cycleErr != nil {
		summary.Message = cycleErr.Error()
	}
	if err := s.deps.History.UpdateCycleCompletion(ctx, historyID, end, summary); err != nil {
		log.Warn().Err(err).Msg("Failed to record cycle completion")
	}
}

func (s *Service) cycleLogger(cycleID string) (zerolog.Logger, func()) {
	base := s.logger.With().Str("cycle_id", cycleID).Logger()
	if s.deps.CycleLogger == nil {
		return base, func() {}
	}
	log, release, err := s.deps.CycleLogger(cycleID)
	if err != nil {
		base.Warn().Err(err).Msg("Failed to create cycle logger, using the service logger")
		return base, func() {}
	}
	return log.With().Str("component", "MonitoringService").Logger(), release
}

// CheckResult is the outcome of a dry-run check of one target.
type CheckResult struct {
	Target      models.Target
	Outcome     models.Outcome
	Format      extractor.Format
	Fallback    extractor.Fallback
	Observation models.Observation
	Fingerprint string
	Err         error
}

// CheckTarget polls a single target against its stored snapshot without
// writing anything or sending notifications. Cache validators are never
// sent, so the full observation is always available.
func (s *Service) CheckTarget(ctx context.Context, target models.Target) (*CheckResult, error) {
	record, found, err := s.deps.Store.Get(ctx, target.ID)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to load snapshot for '%s'", target.ID)
	}
	var prev *models.SnapshotRecord
	if found {
		prev = &record
	}

	decision, extracted := s.poll(ctx, s.logger, target, prev, models.CacheValidators{})
	result := &CheckResult{
		Target:  target,
		Outcome: decision.Outcome,
		Err:     decision.Err,
	}
	if extracted != nil {
		result.Format = extracted.Format
		result.Fallback = extracted.Fallback
		result.Observation = extracted.Observation
		result.Fingerprint = extracted.Fingerprint
	}
	return result, nil
}
