package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/remarkable-pocket/internal/clock"
)

type flakyProbe struct {
	failures int32
	calls    atomic.Int32
}

func (p *flakyProbe) Probe(_ context.Context) error {
	if p.calls.Add(1) <= p.failures {
		return errors.New("no route to host")
	}
	return nil
}

func TestConnectivityChecker_Connected(t *testing.T) {
	probe := &flakyProbe{}
	c := NewConnectivityChecker(probe, clock.Fake(testEpoch), 5*time.Second)

	require.NoError(t, c.Wait(context.Background()))
	assert.Equal(t, int32(1), probe.calls.Load())
}

func TestConnectivityChecker_RetriesUntilReachable(t *testing.T) {
	logs := captureLogs(t)
	fake := clock.Fake(testEpoch)
	probe := &flakyProbe{failures: 2}
	c := NewConnectivityChecker(probe, fake, 5*time.Second)

	done := make(chan error, 1)
	go func() { done <- c.Wait(context.Background()) }()

	for i := 0; i < 2; i++ {
		fake.WaitForTimers(1)
		fake.Advance(5 * time.Second)
	}

	require.NoError(t, <-done)
	assert.Equal(t, int32(3), probe.calls.Load())
	assert.Contains(t, logs.String(), "[ERROR] Unable to connect to the internet. Retrying in 5s...\n")
}

func TestConnectivityChecker_Cancelled(t *testing.T) {
	captureLogs(t)
	fake := clock.Fake(testEpoch)
	c := NewConnectivityChecker(&flakyProbe{failures: 100}, fake, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Wait(ctx) }()

	fake.WaitForTimers(1)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
