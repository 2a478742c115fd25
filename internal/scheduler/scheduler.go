// Package scheduler drives the periodic jobs: incremental collection, the
// daily summary rollup, and topic trend accumulation. The cadences are
// independent and jobs may overlap; each job carries its own idempotence
// guard.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type Jobs struct {
	Collect      func(context.Context)
	DailySummary func(context.Context)
	TopicTrends  func(context.Context)
}

type Scheduler struct {
	clock          clockwork.Clock
	jobs           Jobs
	collectEvery   time.Duration
	trendsEvery    time.Duration
	summaryHourUTC int

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(clock clockwork.Clock, jobs Jobs, collectEvery, trendsEvery time.Duration, summaryHourUTC int) *Scheduler {
	return &Scheduler{
		clock:          clock,
		jobs:           jobs,
		collectEvery:   collectEvery,
		trendsEvery:    trendsEvery,
		summaryHourUTC: summaryHourUTC,
		stop:           make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(3)
	go s.every(ctx, s.collectEvery, s.jobs.Collect, "collect")
	go s.every(ctx, s.trendsEvery, s.jobs.TopicTrends, "topic_trends")
	go s.daily(ctx)

	slog.Info("[Scheduler] Started",
		slog.Duration("collect_every", s.collectEvery),
		slog.Duration("trends_every", s.trendsEvery),
		slog.Int("summary_hour_utc", s.summaryHourUTC))
}

func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
	slog.Info("[Scheduler] Stopped")
}

func (s *Scheduler) every(ctx context.Context, interval time.Duration, job func(context.Context), name string) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-s.clock.After(interval):
			slog.Info("[Scheduler] Running job", slog.String("job", name))
			job(ctx)
		}
	}
}

func (s *Scheduler) daily(ctx context.Context) {
	defer s.wg.Done()

	for {
		now := s.clock.Now().UTC()
		next := NextDailyRun(now, s.summaryHourUTC)

		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-s.clock.After(next.Sub(now)):
			slog.Info("[Scheduler] Running job", slog.String("job", "daily_summary"))
			s.jobs.DailySummary(ctx)
		}
	}
}

// NextDailyRun returns the next occurrence of the given UTC hour strictly
// after now.
func NextDailyRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
