package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FetchMetrics holds the instruments for update fetch and cache metrics.
// A nil *FetchMetrics is a valid no-op receiver so callers never need to
// branch on whether metrics are enabled.
type FetchMetrics struct {
	fetchAttempts metric.Int64Counter
	fetchFailures metric.Int64Counter
	fetchDuration metric.Float64Histogram
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
}

// NewFetchMetrics creates a new FetchMetrics instance with the given meter
// provider. If provider is nil, it returns nil (no-op metrics).
func NewFetchMetrics(provider metric.MeterProvider) (*FetchMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(MeterName)

	fetchAttempts, err := meter.Int64Counter(
		"update_fetch_attempts_total",
		metric.WithDescription("Number of upstream fetch attempts per source"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	fetchFailures, err := meter.Int64Counter(
		"update_fetch_failures_total",
		metric.WithDescription("Number of failed upstream fetch attempts per source"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"update_fetch_duration_seconds",
		metric.WithDescription("Duration of upstream fetch attempts in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"update_cache_hits_total",
		metric.WithDescription("Number of requests served from the TTL cache"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"update_cache_misses_total",
		metric.WithDescription("Number of requests that triggered an upstream refresh"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &FetchMetrics{
		fetchAttempts: fetchAttempts,
		fetchFailures: fetchFailures,
		fetchDuration: fetchDuration,
		cacheHits:     cacheHits,
		cacheMisses:   cacheMisses,
	}, nil
}

// RecordFetchAttempt records one upstream fetch attempt for a source
func (m *FetchMetrics) RecordFetchAttempt(ctx context.Context, source string, duration time.Duration, failed bool) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("source", source))
	m.fetchAttempts.Add(ctx, 1, attrs)
	m.fetchDuration.Record(ctx, duration.Seconds(), attrs)
	if failed {
		m.fetchFailures.Add(ctx, 1, attrs)
	}
}

// RecordCacheHit records a request served from the cache
func (m *FetchMetrics) RecordCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1)
}

// RecordCacheMiss records a request that triggered a refresh
func (m *FetchMetrics) RecordCacheMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(ctx, 1)
}
