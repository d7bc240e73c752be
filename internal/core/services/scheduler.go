package services

import (
	"context"
	"time"

	"github.com/custodia-labs/remarkable-pocket/internal/clock"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driving"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// Connectivity blocks until the network is reachable.
type Connectivity interface {
	Wait(ctx context.Context) error
}

// SchedulerConfig controls the sync loop.
type SchedulerConfig struct {
	// Interval is the delay between the end of a cycle and the next start.
	Interval time.Duration

	// RunOnce stops the loop after the first cycle.
	RunOnce bool
}

// Scheduler runs reconciliation cycles one after another. The next cycle
// is only scheduled once the current one has finished, so cycles never
// overlap.
type Scheduler struct {
	reconciler   driving.Reconciler
	connectivity Connectivity
	clock        clock.Clock
	config       SchedulerConfig
}

// NewScheduler creates a scheduler.
func NewScheduler(
	reconciler driving.Reconciler,
	connectivity Connectivity,
	clk clock.Clock,
	config SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		reconciler:   reconciler,
		connectivity: connectivity,
		clock:        clk,
		config:       config,
	}
}

// Run blocks running cycles until ctx is cancelled, or after one cycle
// with RunOnce. Cycle errors are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := s.connectivity.Wait(ctx); err != nil {
			return err
		}

		if _, err := s.reconciler.Sync(ctx); err != nil {
			logger.Error("Error occurred during sync: %v", err)
		}

		if s.config.RunOnce {
			logger.Info("Run-once option was set. Exiting.")
			return nil
		}

		logger.Info("Next sync in %s.", HumanDuration(s.config.Interval))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.config.Interval):
		}
	}
}
