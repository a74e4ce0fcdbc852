package reconstruct

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"vis2table/internal/domain"
)

// Refresher re-runs the specifications of a set of datasets.
type Refresher interface {
	Refresh(ctx context.Context, datasets []string) error
}

// Scheduler triggers cron-based table refreshes.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	logger    *slog.Logger
	mu        sync.Mutex
	entry     cron.EntryID
	scheduled bool
}

// NewScheduler creates a new refresh scheduler.
func NewScheduler(refresher Refresher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
		logger:    logger,
	}
}

// Start schedules the refresh of datasets and starts the cron scheduler.
func (s *Scheduler) Start(schedule string, datasets []string) error {
	if err := s.Reload(schedule, datasets); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("refresh scheduler started", "schedule", schedule, "datasets", datasets)
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("refresh scheduler stopped")
}

// Reload replaces the scheduled refresh.
func (s *Scheduler) Reload(schedule string, datasets []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled {
		s.cron.Remove(s.entry)
		s.scheduled = false
	}

	targets := append([]string(nil), datasets...)
	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := s.refresher.Refresh(context.Background(), targets); err != nil {
			s.logger.Warn("scheduled refresh failed", "datasets", targets, "error", err)
		}
	})
	if err != nil {
		return domain.ErrValidation("invalid refresh schedule %q: %v", schedule, err)
	}
	s.entry = entryID
	s.scheduled = true
	return nil
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunNow triggers the scheduled job synchronously.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	entry, ok := s.entry, s.scheduled
	s.mu.Unlock()
	if !ok {
		return
	}
	s.cron.Entry(entry).Job.Run()
}
