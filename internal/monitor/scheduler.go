package monitor

import (
	"context"
	"time"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/models"

	"github.com/rs/zerolog"
)

// TargetLoader returns the current target list. It is called before every
// cycle so edits to the target file are picked up without a restart.
type TargetLoader func() ([]models.Target, error)

// CycleRunner runs one poll cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, targets []models.Target) (*CycleReport, error)
}

// Scheduler runs a cycle immediately and then once per interval.
type Scheduler struct {
	runner   CycleRunner
	load     TargetLoader
	interval time.Duration
	tracker  *CycleTracker
	logger   zerolog.Logger
}

// NewScheduler creates a Scheduler. maxCycles of 0 runs until the context
// is cancelled.
func NewScheduler(runner CycleRunner, load TargetLoader, interval time.Duration, maxCycles int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		load:     load,
		interval: interval,
		tracker:  NewCycleTracker(maxCycles),
		logger:   logger.With().Str("component", "Scheduler").Logger(),
	}
}

// Tracker exposes the cycle bookkeeping.
func (s *Scheduler) Tracker() *CycleTracker {
	return s.tracker
}

// Run blocks until the context is cancelled, the cycle limit is reached or
// a cycle fails fatally. Cancellation is not an error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Starting monitor scheduler")

	for {
		if err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}

		if !s.tracker.ShouldContinue() {
			s.logger.Info().Int("cycles", s.tracker.CompletedCycles()).Msg("Maximum number of cycles reached")
			return nil
		}

		s.logger.Info().Time("next_cycle_time", time.Now().Add(s.interval)).Msg("Next cycle scheduled")
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("Context cancelled, stopping scheduler")
			return nil
		case <-timer.C:
		}
	}

	s.logger.Info().Msg("Context cancelled, stopping scheduler")
	return nil
}

// RunOnce loads the targets and runs a single cycle.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	targets, err := s.load()
	if err != nil {
		return common.WrapError(err, "failed to load targets")
	}

	report, err := s.runner.RunCycle(ctx, targets)
	if err != nil {
		return err
	}
	s.tracker.RecordCycle(report)
	return nil
}
