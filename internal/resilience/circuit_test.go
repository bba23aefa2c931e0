package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seeds-admin/internal/resilience"
)

var errDown = errors.New("broker down")

func fail(context.Context) error { return errDown }
func ok(context.Context) error   { return nil }

func TestBreakerOpensAndRecovers(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	b := resilience.NewBreaker("kafka", 2, 0.5, time.Minute)
	b.Now = func() time.Time { return now }
	ctx := context.Background()

	require.ErrorIs(t, b.Do(ctx, fail), errDown)
	require.Equal(t, resilience.Closed, b.State())
	require.ErrorIs(t, b.Do(ctx, fail), errDown)
	require.Equal(t, resilience.Open, b.State())

	calls := 0
	err := b.Do(ctx, func(context.Context) error { calls++; return nil })
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Zero(t, calls)

	now = now.Add(time.Minute)
	require.NoError(t, b.Do(ctx, ok))
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	b := resilience.NewBreaker("kafka", 1, 0.5, time.Second)
	b.Now = func() time.Time { return now }
	ctx := context.Background()

	require.Error(t, b.Do(ctx, fail))
	now = now.Add(2 * time.Second)
	require.ErrorIs(t, b.Do(ctx, fail), errDown)
	require.Equal(t, resilience.Open, b.State())
	require.ErrorIs(t, b.Do(ctx, ok), resilience.ErrOpenCircuit)
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	b := resilience.NewBreaker("kafka", 1, 0.5, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	resilience.MustRegisterMetrics("seeds", reg)
	resilience.MustRegisterMetrics("seeds", reg)

	b := resilience.NewBreaker("metrics-target", 1, 0.5, time.Minute)
	require.Error(t, b.Do(context.Background(), fail))

	count, err := testutil.GatherAndCount(reg, "seeds_breaker_transitions_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
