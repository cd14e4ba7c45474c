package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/prev/internal/logfields"
)

// Scheduler runs periodic cache maintenance.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(_ context.Context) {
	slog.Debug("Starting cache scheduler")
	s.scheduler.Start()
}

// Stop shuts down the scheduler and waits for running jobs.
func (s *Scheduler) Stop(_ context.Context) error {
	slog.Debug("Stopping cache scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleClean removes stale cache directories every interval, starting immediately.
func (s *Scheduler) ScheduleClean(interval time.Duration, cacheRoot string, maxAgeDays int) (string, error) {
	return s.Schedule("cache-clean", interval, func() {
		n, err := Clean(cacheRoot, maxAgeDays)
		if err != nil {
			slog.Warn("Cache clean failed", logfields.Error(err))
			return
		}
		if n > 0 {
			slog.Info("Removed stale caches", logfields.Count(n), slog.Int("max_age_days", maxAgeDays))
		}
	})
}

// Schedule registers fn to run every interval, starting immediately. Returns the job ID.
func (s *Scheduler) Schedule(name string, interval time.Duration, fn func()) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create %s job: %w", name, err)
	}
	return job.ID().String(), nil
}
