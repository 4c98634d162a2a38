package scheduler

import (
	"context"
	"log/slog"
	"time"

	"a3bowler/internal/models"
	"a3bowler/internal/recurrence"
)

// RuleSource provides the schedules to evaluate. The Postgres store
// satisfies it.
type RuleSource interface {
	ListSchedules(ctx context.Context) ([]models.Schedule, error)
}

// Job is the payload handed to the delivery system for one occurrence.
// Rendering the email body is the sink's concern, not the scheduler's.
type Job struct {
	ScheduleID string    `json:"schedule_id"`
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	SendAt     time.Time `json:"send_at"`
	Recurring  bool      `json:"recurring"`
}

// Sink accepts jobs for actual delivery.
type Sink interface {
	Enqueue(ctx context.Context, job Job) error
}

// LogSink records jobs in the log instead of delivering them; the default
// when no mail transport is configured.
type LogSink struct {
	Logger *slog.Logger
}

// Enqueue implements Sink.
func (l LogSink) Enqueue(_ context.Context, job Job) error {
	l.Logger.Info("summary email queued",
		slog.String("schedule", job.ScheduleID),
		slog.String("subject", job.Subject),
		slog.Time("send_at", job.SendAt),
		slog.Int("recipients", len(job.Recipients)))
	return nil
}

// Scheduler periodically re-evaluates every stored schedule and hands the
// next occurrence of each to the sink. Evaluation uses the same pure
// calculator the preview endpoint uses, so the two can never disagree.
type Scheduler struct {
	source   RuleSource
	sink     Sink
	logger   *slog.Logger
	interval time.Duration

	now      func() time.Time
	enqueued map[string]time.Time // schedule id -> last send time handed off
}

// New builds a scheduler that re-evaluates rules every interval.
func New(source RuleSource, sink Sink, logger *slog.Logger, interval time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		source:   source,
		sink:     sink,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		enqueued: map[string]time.Time{},
	}
}

// Run evaluates immediately and then on every tick until the context is
// canceled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", slog.Duration("interval", s.interval))
	s.evaluate(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.evaluate(ctx)
		}
	}
}

// evaluate computes the next occurrence for each schedule and enqueues any
// occurrence not yet handed off. A schedule past its stop date simply
// yields nothing.
func (s *Scheduler) evaluate(ctx context.Context) {
	schedules, err := s.source.ListSchedules(ctx)
	if err != nil {
		s.logger.Error("list schedules", slog.String("error", err.Error()))
		return
	}

	now := s.now()
	seen := make(map[string]struct{}, len(schedules))
	for _, sc := range schedules {
		seen[sc.ID] = struct{}{}
		rule, err := sc.Rule()
		if err != nil {
			s.logger.Warn("skipping malformed schedule", slog.String("id", sc.ID), slog.String("error", err.Error()))
			continue
		}
		next, ok := recurrence.NextOccurrence(rule, now)
		if !ok {
			continue
		}
		if last, seen := s.enqueued[sc.ID]; seen && last.Equal(next) {
			continue
		}

		job := Job{
			ScheduleID: sc.ID,
			Recipients: sc.Recipients,
			Subject:    sc.Subject,
			SendAt:     next,
			Recurring:  true,
		}
		if err := s.sink.Enqueue(ctx, job); err != nil {
			s.logger.Error("enqueue summary email", slog.String("id", sc.ID), slog.String("error", err.Error()))
			continue
		}
		s.enqueued[sc.ID] = next
	}

	// Forget schedules that no longer exist so the dedupe map does not
	// grow for the life of the process.
	for id := range s.enqueued {
		if _, ok := seen[id]; !ok {
			delete(s.enqueued, id)
		}
	}
}
