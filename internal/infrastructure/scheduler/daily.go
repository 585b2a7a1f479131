package scheduler

import (
	"context"
	"fmt"
	"time"

	"SecurityBriefing/internal/ports"
)

// Daily fires the job once per day at a fixed wall-clock time in a fixed
// timezone. There is no persisted last-run marker: a fire missed while the
// process is down is simply skipped until the next day.
type Daily struct {
	hour     int
	minute   int
	location *time.Location
	stop     chan struct{}
}

var _ ports.Scheduler = (*Daily)(nil)

// NewDaily parses an "HH:MM" trigger time in the given location.
func NewDaily(at string, location *time.Location) (*Daily, error) {
	parsed, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("invalid daily trigger time %q: %w", at, err)
	}
	if location == nil {
		location = time.UTC
	}
	return &Daily{hour: parsed.Hour(), minute: parsed.Minute(), location: location}, nil
}

// Start launches the timer goroutine. The job runs at the next trigger time,
// not immediately.
func (d *Daily) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	go func() {
		for {
			timer := time.NewTimer(time.Until(d.nextRun(time.Now())))
			select {
			case t := <-timer.C:
				job(t)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-d.stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the timer goroutine.
func (d *Daily) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}

// nextRun returns the next trigger instant strictly after now.
func (d *Daily) nextRun(now time.Time) time.Time {
	local := now.In(d.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
