// Package coordinator implements the fetch coordination between the TTL
// cache and the prioritized upstream sources.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sfr-mod/update-server/internal/cache"
	"github.com/sfr-mod/update-server/internal/config"
	"github.com/sfr-mod/update-server/internal/logger"
	"github.com/sfr-mod/update-server/internal/sources"
	"github.com/sfr-mod/update-server/internal/telemetry"
	"github.com/sfr-mod/update-server/internal/update"
	"github.com/sfr-mod/update-server/internal/versions"
)

// refreshKey coalesces concurrent refreshes onto one upstream pass
const refreshKey = "latest"

// SourceFailure records one source's failure reason within a refresh pass
type SourceFailure struct {
	// Source is the display name of the failed source
	Source string `json:"source"`

	// Reason is the underlying error text
	Reason string `json:"reason"`
}

// ExhaustedError is returned when every enabled source failed in one
// refresh pass. It is the only error that crosses the coordinator's public
// boundary; individual source failures are converted into fallback.
type ExhaustedError struct {
	Failures []SourceFailure
}

// Error returns the aggregate failure message
func (e *ExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return "all update sources exhausted: no sources enabled"
	}

	reasons := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		reasons = append(reasons, fmt.Sprintf("%s: %s", f.Source, f.Reason))
	}
	return "all update sources exhausted: " + strings.Join(reasons, "; ")
}

// ProbeResult is the raw outcome of probing a single source, bypassing the
// cache and the fallback short-circuit
type ProbeResult struct {
	// Source is the probed source's display name
	Source string `json:"source"`

	// OK reports whether the probe produced a usable release record
	OK bool `json:"ok"`

	// Version is the release version on success
	Version string `json:"version,omitempty"`

	// Error is the failure reason on failure
	Error string `json:"error,omitempty"`

	// DurationMs is the probe duration in milliseconds
	DurationMs int64 `json:"durationMs"`
}

// Coordinator walks the prioritized sources on cache miss, normalizes the
// first success, and arbitrates the shared TTL cache. Concurrent callers
// racing on cache expiry share a single in-flight refresh.
type Coordinator struct {
	registry *sources.Registry
	factory  sources.HandlerFactory
	cache    *cache.Cache
	timeout  time.Duration

	group   singleflight.Group
	metrics *telemetry.FetchMetrics
}

// Option is a function that configures the coordinator
type Option func(*Coordinator)

// WithMetrics sets the fetch metrics for the coordinator
func WithMetrics(metrics *telemetry.FetchMetrics) Option {
	return func(c *Coordinator) {
		c.metrics = metrics
	}
}

// New creates a new coordinator with injected dependencies.
// A timeout of 0 falls back to the configured default.
func New(registry *sources.Registry, factory sources.HandlerFactory, ttlCache *cache.Cache, timeout time.Duration, opts ...Option) *Coordinator {
	if timeout <= 0 {
		timeout = config.DefaultSourceTimeout
	}

	c := &Coordinator{
		registry: registry,
		factory:  factory,
		cache:    ttlCache,
		timeout:  timeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Latest returns the latest normalized update, serving from the cache while
// it is fresh and refreshing from the upstream sources otherwise.
func (c *Coordinator) Latest(ctx context.Context) (*update.Update, error) {
	if cached := c.cache.Get(); cached != nil {
		c.metrics.RecordCacheHit(ctx)
		return cached, nil
	}
	c.metrics.RecordCacheMiss(ctx)

	// Concurrent callers racing on an expired cache share one refresh. The
	// shared pass is detached from the initiating caller's cancellation so
	// one aborting caller cannot fail the fetch for everyone still waiting;
	// each source fetch stays bounded by the per-source timeout.
	v, err, _ := c.group.Do(refreshKey, func() (interface{}, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}

	return v.(*update.Update), nil
}

// refresh walks the enabled sources in ascending priority order and returns
// the first successfully normalized release, storing it in the cache.
func (c *Coordinator) refresh(ctx context.Context) (*update.Update, error) {
	ordered := c.registry.EnabledByPriority()
	failures := make([]SourceFailure, 0, len(ordered))

	for i := range ordered {
		src := &ordered[i]

		raw, err := c.fetchOne(ctx, src)
		if err != nil {
			logger.Warnf("Source %q failed, trying next: %v", src.Name, err)
			failures = append(failures, SourceFailure{Source: src.Name, Reason: err.Error()})
			continue
		}

		normalized, err := update.Normalize(raw)
		if err != nil {
			logger.Warnf("Source %q returned an unusable record, trying next: %v", src.Name, err)
			failures = append(failures, SourceFailure{Source: src.Name, Reason: err.Error()})
			continue
		}

		if prev := c.cache.LastKnownVersion(); prev != "" && versions.IsNewer(normalized.Version, prev) {
			logger.Infof("Newer release available: %s -> %s (source: %s)", prev, normalized.Version, src.Name)
		}

		c.cache.Store(normalized, src.Name)
		logger.Infof("Refreshed latest update from %q: version %s", src.Name, normalized.Version)
		return normalized, nil
	}

	logger.Errorf("All %d enabled sources failed in refresh pass", len(ordered))
	return nil, &ExhaustedError{Failures: failures}
}

// fetchOne invokes one source's adapter under the per-source timeout
func (c *Coordinator) fetchOne(ctx context.Context, src *config.SourceConfig) (*sources.RawRelease, error) {
	handler, err := c.factory.CreateHandler(src.Type)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := handler.Fetch(fetchCtx, src)
	c.metrics.RecordFetchAttempt(ctx, src.Name, time.Since(start), err != nil)

	return raw, err
}

// ProbeAll sequentially probes every enabled source and returns each one's
// raw outcome. It bypasses the cache and never short-circuits on success.
func (c *Coordinator) ProbeAll(ctx context.Context) []ProbeResult {
	ordered := c.registry.EnabledByPriority()
	results := make([]ProbeResult, 0, len(ordered))

	for i := range ordered {
		src := &ordered[i]

		start := time.Now()
		raw, err := c.fetchOne(ctx, src)
		elapsed := time.Since(start).Milliseconds()

		if err != nil {
			results = append(results, ProbeResult{
				Source:     src.Name,
				OK:         false,
				Error:      err.Error(),
				DurationMs: elapsed,
			})
			continue
		}

		results = append(results, ProbeResult{
			Source:     src.Name,
			OK:         true,
			Version:    raw.Version,
			DurationMs: elapsed,
		})
	}

	return results
}

// ClearCache resets the TTL cache to the empty entry
func (c *Coordinator) ClearCache() {
	c.cache.Clear()
	logger.Info("Update cache cleared")
}

// CacheSnapshot returns a read-only view of the cache state
func (c *Coordinator) CacheSnapshot() cache.Snapshot {
	return c.cache.Describe()
}

// Sources returns every configured source in configured order
func (c *Coordinator) Sources() []config.SourceConfig {
	return c.registry.All()
}
