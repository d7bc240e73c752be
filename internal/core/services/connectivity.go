package services

import (
	"context"
	"time"

	"github.com/custodia-labs/remarkable-pocket/internal/clock"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// Ensure ConnectivityChecker implements the interface.
var _ Connectivity = (*ConnectivityChecker)(nil)

// ConnectivityChecker waits for the internet to become reachable.
type ConnectivityChecker struct {
	probe driven.NetworkProbe
	clock clock.Clock
	retry time.Duration
}

// NewConnectivityChecker creates a checker retrying every retry.
func NewConnectivityChecker(probe driven.NetworkProbe, clk clock.Clock, retry time.Duration) *ConnectivityChecker {
	return &ConnectivityChecker{probe: probe, clock: clk, retry: retry}
}

// Wait returns once the probe succeeds, or with ctx's error.
func (c *ConnectivityChecker) Wait(ctx context.Context) error {
	for {
		err := c.probe.Probe(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error("Unable to connect to the internet. Retrying in %s...", HumanDuration(c.retry))
		logger.Debug("Connectivity probe failed: %v", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(c.retry):
		}
	}
}
