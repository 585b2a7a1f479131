package usecase

import (
	"context"
	"log/slog"
	"time"

	"SecurityBriefing/internal/ports"
)

// Scheduler wires the daily trigger driver with the briefing use case.
type Scheduler struct {
	driver   ports.Scheduler
	briefing *Briefing
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring briefing job.
func NewScheduler(driver ports.Scheduler, briefing *Briefing, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, briefing: briefing, logger: logger}
}

// Start registers the briefing run with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.briefing == nil {
		return nil
	}

	job := func(trigger time.Time) {
		saved, err := s.briefing.GenerateToday(ctx)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("scheduled briefing run failed", "trigger", trigger, "error", err)
			}
			return
		}
		if s.logger != nil {
			s.logger.Info("scheduled briefing saved", "id", saved.ID, "date", saved.BriefingDate)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
