// Package scheduler runs the periodic maintenance jobs of the web process.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"expensetracker/internal/log"
	"expensetracker/internal/metrics"
)

// DefaultSweepSchedule removes expired sessions once an hour.
const DefaultSweepSchedule = "@every 1h"

// SessionStore deletes sessions that expired before now.
type SessionStore interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type Sweeper struct {
	store   SessionStore
	metrics *metrics.Metrics
	logger  *log.Logger
	now     func() time.Time
}

func NewSweeper(store SessionStore, m *metrics.Metrics, logger *log.Logger) *Sweeper {
	if logger == nil {
		logger = log.Nop()
	}
	return &Sweeper{
		store:   store,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentScheduler),
		now:     time.Now,
	}
}

// Sweep runs one pass and returns the number of sessions removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.SweepExpired(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Session sweep failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldOperation, log.OpSweep)
		return 0, err
	}
	s.metrics.SessionsSwept(n)
	if n > 0 {
		s.logger.InfoContext(ctx, "Expired sessions removed", "count", n, log.FieldOperation, log.OpSweep)
	}
	return n, nil
}

// Run sweeps once, then on every tick of schedule until ctx is cancelled.
// It returns after the running job, if any, has finished.
func (s *Sweeper) Run(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { _, _ = s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", schedule, err)
	}

	_, _ = s.Sweep(ctx)
	c.Start()
	s.logger.InfoContext(ctx, "Session sweeper started", "schedule", schedule, log.FieldOperation, log.OpStartup)

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Session sweeper stopped", log.FieldOperation, log.OpShutdown)
	return nil
}
