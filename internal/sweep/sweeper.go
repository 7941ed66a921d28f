// Package sweep deletes calendar events that ended before a time window's
// upper bound.
//
// The Sweeper walks every page of single-occurrence events in the window.
// For an occurrence of a recurring series it also resolves the series
// definition, and deletes the whole series once its last RRULE UNTIL is
// passed. Deletions are deduplicated by event ID, so a series and its
// instances are each deleted at most once per run.
//
// Example usage:
//
//	s := sweep.New(svc, window, sweep.WithConfirm(true))
//	summary, err := s.Run(ctx)
package sweep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/b0uh/Google-Calendar-events-deletion/internal/core"
	"github.com/b0uh/Google-Calendar-events-deletion/internal/logging"
	"github.com/b0uh/Google-Calendar-events-deletion/internal/report"
)

// DefaultDeleteDelay is the pause before each confirmed delete request.
const DefaultDeleteDelay = 100 * time.Millisecond

// Outcome is the terminal state of a single deletion attempt.
type Outcome int

const (
	// ID was already processed in this run; nothing was done
	OutcomeSkipped Outcome = iota
	// Simulation mode: classified and reported, no API call
	OutcomeRecorded
	OutcomeDeleted
	OutcomeAlreadyDeleted
	OutcomeFailed
)

// Summary counts the outcomes of a run.
type Summary struct {
	Deleted        int
	Recorded       int
	AlreadyDeleted int
	Failed         int
}

// Trashed is the number of events moved (or, in simulation, that would be
// moved) to the trash.
func (s Summary) Trashed() int {
	return s.Deleted + s.Recorded
}

// Sweeper deletes passed events from a calendar service.
// It is not safe for concurrent use.
type Sweeper struct {
	svc      core.Service
	window   core.Window
	confirm  bool
	delay    time.Duration
	logger   *slog.Logger
	reporter *report.Reporter

	// Deleted-Set: IDs processed for deletion in this run
	processed map[string]struct{}
	// Series IDs already looked up and not deleted
	resolved  map[string]struct{}
	summary   Summary
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithConfirm enables real deletions. Without it the sweep is a simulation.
func WithConfirm(confirm bool) Option {
	return func(s *Sweeper) { s.confirm = confirm }
}

// WithDeleteDelay overrides the pause before each confirmed delete.
func WithDeleteDelay(d time.Duration) Option {
	return func(s *Sweeper) { s.delay = d }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = logger }
}

// WithReporter sets where status lines are printed.
func WithReporter(r *report.Reporter) Option {
	return func(s *Sweeper) { s.reporter = r }
}

// New returns a Sweeper over svc for window w.
func New(svc core.Service, w core.Window, opts ...Option) *Sweeper {
	s := &Sweeper{
		svc:       svc,
		window:    w,
		delay:     DefaultDeleteDelay,
		logger:    slog.Default(),
		reporter:  report.New(io.Discard, report.Trash{}),
		processed: make(map[string]struct{}),
		resolved:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithOperation(s.logger, "sweep")
	return s
}

// Confirmed reports whether deletions are real.
func (s *Sweeper) Confirmed() bool {
	return s.confirm
}

// Run sweeps every page of the window. Per-event failures are reported and
// counted; only listing failures and context cancellation abort the run.
func (s *Sweeper) Run(ctx context.Context) (Summary, error) {
	pageToken := ""
	for {
		page, err := s.svc.ListEvents(ctx, s.window, pageToken)
		if err != nil {
			return s.summary, fmt.Errorf("list events: %w", err)
		}

		for _, event := range page.Events {
			if err := ctx.Err(); err != nil {
				return s.summary, err
			}
			s.sweepEvent(ctx, event)
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return s.summary, nil
}

func (s *Sweeper) sweepEvent(ctx context.Context, event core.Event) {
	if event.IsInstance() {
		s.sweepSeries(ctx, event)
	}

	passed, err := IsPassed(event, s.window.Max)
	if err != nil {
		s.logger.Warn("cannot classify event",
			logging.EventID(event.ID), logging.Err(err))
		return
	}
	if passed {
		s.Delete(ctx, event)
	}
}

// sweepSeries resolves the series an instance belongs to and deletes it
// when the series itself is passed.
func (s *Sweeper) sweepSeries(ctx context.Context, instance core.Event) {
	id := instance.RecurringEventID
	if s.seen(id) {
		return
	}
	if _, ok := s.resolved[id]; ok {
		return
	}
	s.resolved[id] = struct{}{}

	series, err := s.svc.GetEvent(ctx, id)
	if err != nil {
		s.logger.Warn("cannot fetch recurring event",
			logging.EventID(id), logging.Err(err))
		s.reporter.Error(fmt.Errorf("fetch recurring event %s: %w", id, err))
		return
	}

	passed, err := IsPassed(series, s.window.Max)
	if err != nil {
		s.logger.Warn("cannot classify recurring event",
			logging.EventID(id), logging.Err(err))
		return
	}
	if passed {
		s.Delete(ctx, series)
	}
}

func (s *Sweeper) seen(id string) bool {
	_, ok := s.processed[id]
	return ok
}

// Delete removes event once per run. A repeated ID is a no-op.
func (s *Sweeper) Delete(ctx context.Context, event core.Event) Outcome {
	if s.seen(event.ID) {
		return OutcomeSkipped
	}
	s.processed[event.ID] = struct{}{}

	if !s.confirm {
		s.summary.Recorded++
		s.reporter.Status(core.StatusDeleted, event)
		return OutcomeRecorded
	}

	result := s.deleteNow(ctx, event.ID)
	logger := s.logger.With(logging.EventID(event.ID), logging.Status(result.Status.String()))

	var outcome Outcome
	switch result.Status {
	case core.StatusDeleted:
		s.summary.Deleted++
		outcome = OutcomeDeleted
		logger.Debug("event deleted")
	case core.StatusAlreadyDeleted:
		s.summary.AlreadyDeleted++
		outcome = OutcomeAlreadyDeleted
		logger.Debug("event already deleted")
	case core.StatusFailed:
		s.summary.Failed++
		outcome = OutcomeFailed
		logger.Error("delete failed", logging.Err(result.Err))
	}

	s.reporter.Status(result.Status, event)
	if result.Status == core.StatusFailed {
		s.reporter.Error(result.Err)
	}
	return outcome
}

// deleteNow waits the courtesy delay, then issues the delete request.
func (s *Sweeper) deleteNow(ctx context.Context, id string) core.DeleteResult {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return core.Failed(ctx.Err())
		case <-timer.C:
		}
	}
	return s.svc.DeleteEvent(ctx, id)
}
