package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/resilience"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newBreaker(c *clock, metrics *resilience.Metrics) *resilience.Breaker {
	return resilience.NewBreaker(resilience.Config{
		Target:       "catalog_cache",
		MinRequests:  2,
		FailureRatio: 0.5,
		OpenFor:      time.Second,
		Logger:       zerolog.Nop(),
		Metrics:      metrics,
		Now:          c.Now,
	})
}

func TestBreakerTransitions(t *testing.T) {
	c := &clock{now: time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)}
	metrics := resilience.NewMetrics("test", prometheus.NewRegistry())
	breaker := newBreaker(c, metrics)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx), "open breaker refuses calls")
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.State.WithLabelValues("catalog_cache")))

	c.now = c.now.Add(time.Second)
	require.True(t, breaker.Allow(ctx), "cool-off admits a probe")
	require.Equal(t, resilience.HalfOpen, breaker.State())
	require.False(t, breaker.Allow(ctx), "only one probe at a time")

	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())
	require.True(t, breaker.Allow(ctx))

	require.Equal(t, 0.0, testutil.ToFloat64(metrics.State.WithLabelValues("catalog_cache")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Opened.WithLabelValues("catalog_cache")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("catalog_cache", "closed", "open")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("catalog_cache", "open", "half_open")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("catalog_cache", "half_open", "closed")))
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	c := &clock{now: time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)}
	breaker := newBreaker(c, nil)
	ctx := context.Background()
	boom := errors.New("redis down")

	require.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return boom }), boom)
	require.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return boom }), boom)
	require.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return nil }), resilience.ErrOpenCircuit)

	c.now = c.now.Add(time.Second)
	require.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return boom }), boom)
	require.Equal(t, resilience.Open, breaker.State())
}

func TestBreakerStaysClosedBelowRatio(t *testing.T) {
	c := &clock{now: time.Now()}
	breaker := newBreaker(c, nil)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.True(t, breaker.Allow(ctx))
		breaker.Report(ctx, i != 5)
	}
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestNilBreakerAllows(t *testing.T) {
	var breaker *resilience.Breaker
	require.True(t, breaker.Allow(context.Background()))
	require.NoError(t, breaker.Do(context.Background(), func(context.Context) error { return nil }))
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestMetricsReuseRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := resilience.NewMetrics("test", reg)
	second := resilience.NewMetrics("test", reg)
	require.Same(t, first.State, second.State)
}
