// Package reaper deletes finished and abandoned games on a schedule.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chessd/pkg/game"
)

const (
	JobFinished = "finished"
	JobStale    = "stale"
)

var ErrUnknownJob = errors.New("unknown reaper job")

type Config struct {
	FinishedEvery time.Duration
	StaleEvery    time.Duration
	StaleAfter    time.Duration
}

// Scheduler holds no locks: a game deleted while a move is in flight is
// simply gone afterwards.
type Scheduler struct {
	repo   game.Repository
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewScheduler(repo game.Repository, cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("chessd/pkg/reaper"),
		now:    time.Now,
	}
}

// WithClock replaces the time source used for the staleness cutoff.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

func (s *Scheduler) ReapFinished(ctx context.Context) (int, error) {
	return s.reap(ctx, JobFinished, game.WithStatus(game.StatusFinished))
}

func (s *Scheduler) ReapStale(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.cfg.StaleAfter)
	return s.reap(ctx, JobStale, game.IdleSince(cutoff))
}

// Reap runs the job with the given name once.
func (s *Scheduler) Reap(ctx context.Context, job string) (int, error) {
	switch job {
	case JobFinished:
		return s.ReapFinished(ctx)
	case JobStale:
		return s.ReapStale(ctx)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
}

func (s *Scheduler) reap(ctx context.Context, job string, f game.Filter) (int, error) {
	ctx, span := s.tracer.Start(ctx, "reaper."+job)
	defer span.End()

	start := time.Now()
	deleted := 0
	var errs []error

	for g, err := range s.repo.Query(ctx, f) {
		if err != nil {
			errs = append(errs, err)
			s.logger.ErrorContext(ctx, "reaper query failed", "job", job, "error", err)
			continue
		}
		if err := s.repo.Delete(ctx, g.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", g.ID, err))
			s.logger.ErrorContext(ctx, "reaper delete failed", "job", job, "game", g.ID, "error", err)
			continue
		}
		deleted++
	}

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reap incomplete")
	}
	span.SetAttributes(attribute.Int("reaper.deleted", deleted))
	s.logger.InfoContext(ctx, "reaper run", "job", job, "deleted", deleted, "duration", time.Since(start))

	return deleted, err
}

// Run ticks both jobs until ctx is cancelled. A non-positive interval
// disables that job.
func (s *Scheduler) Run(ctx context.Context) {
	finished := ticker(s.cfg.FinishedEvery)
	stale := ticker(s.cfg.StaleEvery)
	defer finished.stop()
	defer stale.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-finished.c:
			_, _ = s.ReapFinished(ctx)
		case <-stale.c:
			_, _ = s.ReapStale(ctx)
		}
	}
}

type tick struct {
	t *time.Ticker
	c <-chan time.Time
}

func ticker(every time.Duration) tick {
	if every <= 0 {
		return tick{}
	}
	t := time.NewTicker(every)
	return tick{t: t, c: t.C}
}

func (t tick) stop() {
	if t.t != nil {
		t.t.Stop()
	}
}
