package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfr-mod/update-server/internal/cache"
	"github.com/sfr-mod/update-server/internal/config"
	"github.com/sfr-mod/update-server/internal/coordinator"
	"github.com/sfr-mod/update-server/internal/update"
)

// fakeService is a scripted UpdateService for handler tests
type fakeService struct {
	latest       *update.Update
	latestErr    error
	probeResults []coordinator.ProbeResult
	snapshot     cache.Snapshot
	sources      []config.SourceConfig
	cleared      bool
}

func (f *fakeService) Latest(context.Context) (*update.Update, error) {
	return f.latest, f.latestErr
}

func (f *fakeService) ProbeAll(context.Context) []coordinator.ProbeResult {
	return f.probeResults
}

func (f *fakeService) ClearCache() {
	f.cleared = true
}

func (f *fakeService) CacheSnapshot() cache.Snapshot {
	return f.snapshot
}

func (f *fakeService) Sources() []config.SourceConfig {
	return f.sources
}

func doRequest(t *testing.T, svc UpdateService, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	NewServer(svc).ServeHTTP(rec, req)
	return rec
}

func TestGetLatest_Success(t *testing.T) {
	t.Parallel()

	svc := &fakeService{
		latest: &update.Update{
			Version:   "1.2.0",
			URL:       "https://x/sfr.zip",
			Changelog: "No changelog provided",
			Size:      5000000,
			Date:      "2024-01-01T00:00:00.000Z",
			Source:    "GitHub Releases",
		},
	}

	rec := doRequest(t, svc, "/latest")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"version": "1.2.0",
		"url": "https://x/sfr.zip",
		"changelog": "No changelog provided",
		"size": 5000000,
		"date": "2024-01-01T00:00:00.000Z",
		"source": "GitHub Releases"
	}`, rec.Body.String())
}

func TestGetLatest_AllSourcesExhausted(t *testing.T) {
	t.Parallel()

	svc := &fakeService{
		latestErr: &coordinator.ExhaustedError{Failures: []coordinator.SourceFailure{
			{Source: "GitHub Releases", Reason: "timeout"},
			{Source: "Mirror Metadata", Reason: "HTTP 502"},
		}},
	}

	rec := doRequest(t, svc, "/latest")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "all_sources_exhausted", body.Error)
	assert.Equal(t, "All update sources failed", body.Message)
	assert.Equal(t, "timeout", body.Details["GitHub Releases"])
	assert.Equal(t, "HTTP 502", body.Details["Mirror Metadata"])
}

func TestGetLatest_UnexpectedError(t *testing.T) {
	t.Parallel()

	svc := &fakeService{latestErr: errors.New("boom")}

	rec := doRequest(t, svc, "/latest")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body.Error)
}

func TestGetHealth(t *testing.T) {
	t.Parallel()

	age := int64(42)
	svc := &fakeService{
		snapshot: cache.Snapshot{Valid: true, Source: "GitHub Releases", AgeSeconds: &age},
		sources: []config.SourceConfig{
			{Name: "GitHub Releases", Type: config.SourceTypeGitHub, Endpoint: "http://a", Priority: 1, Enabled: true},
			{Name: "Mirror Metadata", Type: config.SourceTypeStatic, Endpoint: "http://b", Priority: 2, Enabled: false},
		},
	}

	rec := doRequest(t, svc, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.GreaterOrEqual(t, body.Uptime, int64(0))
	assert.True(t, body.Cache.Valid)
	assert.Equal(t, "GitHub Releases", body.Cache.Source)
	require.Len(t, body.Sources, 2)
	assert.Equal(t, SourceInfo{Name: "GitHub Releases", Enabled: true, Priority: 1}, body.Sources[0])
	assert.Equal(t, SourceInfo{Name: "Mirror Metadata", Enabled: false, Priority: 2}, body.Sources[1])
}

func TestClearCache(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}

	rec := doRequest(t, svc, "/clear-cache")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.cleared)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cache cleared", body.Status)
}

func TestTestSources(t *testing.T) {
	t.Parallel()

	svc := &fakeService{
		probeResults: []coordinator.ProbeResult{
			{Source: "GitHub Releases", OK: false, Error: "timeout", DurationMs: 5000},
			{Source: "Mirror Metadata", OK: true, Version: "1.2.0", DurationMs: 80},
		},
	}

	rec := doRequest(t, svc, "/test-sources")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body ProbeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.False(t, body.Results[0].OK)
	assert.Equal(t, "timeout", body.Results[0].Error)
	assert.True(t, body.Results[1].OK)
	assert.Equal(t, "1.2.0", body.Results[1].Version)
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeService{}, "/version")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Version)
}

func TestCORSHeaders(t *testing.T) {
	t.Parallel()

	svc := &fakeService{latest: &update.Update{Version: "1.0.0", URL: "https://x", Changelog: "-", Date: "-", Source: "A"}}

	req := httptest.NewRequest(http.MethodGet, "/latest", nil)
	req.Header.Set("Origin", "https://mods.example.com")
	rec := httptest.NewRecorder()
	NewServer(svc).ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsHandlerMounted(t *testing.T) {
	t.Parallel()

	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	NewServer(&fakeService{}, WithMetricsHandler(metricsHandler)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}
