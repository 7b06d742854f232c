package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sfr-mod/update-server/internal/cache"
	"github.com/sfr-mod/update-server/internal/config"
	"github.com/sfr-mod/update-server/internal/coordinator"
	"github.com/sfr-mod/update-server/internal/logger"
	"github.com/sfr-mod/update-server/internal/update"
	"github.com/sfr-mod/update-server/internal/versions"
)

// UpdateService is the surface the HTTP handlers need from the coordinator
type UpdateService interface {
	// Latest returns the latest normalized update, cached or refreshed
	Latest(ctx context.Context) (*update.Update, error)

	// ProbeAll probes every enabled source, bypassing the cache
	ProbeAll(ctx context.Context) []coordinator.ProbeResult

	// ClearCache resets the TTL cache
	ClearCache()

	// CacheSnapshot returns a read-only view of the cache state
	CacheSnapshot() cache.Snapshot

	// Sources returns every configured source
	Sources() []config.SourceConfig
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse represents the health endpoint response
type HealthResponse struct {
	Status  string         `json:"status"`
	Uptime  int64          `json:"uptime"`
	Cache   cache.Snapshot `json:"cache"`
	Sources []SourceInfo   `json:"sources"`
}

// SourceInfo summarizes one configured source for the health endpoint
type SourceInfo struct {
	Name     string `json:"name"`
	Enabled  bool   `json:"enabled"`
	Priority int    `json:"priority"`
}

// StatusResponse is the body for administrative actions
type StatusResponse struct {
	Status string `json:"status"`
}

// ProbeResponse wraps the per-source probe outcomes
type ProbeResponse struct {
	Results []coordinator.ProbeResult `json:"results"`
}

// VersionResponse reports the server's own build information
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// Routes defines the routes for the update API with dependency injection
type Routes struct {
	service   UpdateService
	startedAt time.Time
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc UpdateService) *Routes {
	return &Routes{
		service:   svc,
		startedAt: time.Now(),
	}
}

// Router creates a new router for the update API
func Router(svc UpdateService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/latest", routes.getLatest)
	r.Get("/health", routes.getHealth)
	r.Get("/clear-cache", routes.clearCache)
	r.Get("/test-sources", routes.testSources)
	r.Get("/version", routes.getVersion)

	return r
}

// getLatest handles GET /latest
func (rr *Routes) getLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := rr.service.Latest(r.Context())
	if err != nil {
		var exhausted *coordinator.ExhaustedError
		if errors.As(err, &exhausted) {
			details := make(map[string]string, len(exhausted.Failures))
			for _, f := range exhausted.Failures {
				details[f.Source] = f.Reason
			}
			rr.writeErrorResponse(w, http.StatusServiceUnavailable, ErrorResponse{
				Error:   "all_sources_exhausted",
				Message: "All update sources failed",
				Details: details,
			})
			return
		}

		logger.Errorf("Failed to get latest update: %v", err)
		rr.writeErrorResponse(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get latest update",
		})
		return
	}

	rr.writeJSONResponse(w, latest)
}

// getHealth handles GET /health
func (rr *Routes) getHealth(w http.ResponseWriter, _ *http.Request) {
	configured := rr.service.Sources()
	infos := make([]SourceInfo, 0, len(configured))
	for _, src := range configured {
		infos = append(infos, SourceInfo{
			Name:     src.Name,
			Enabled:  src.Enabled,
			Priority: src.Priority,
		})
	}

	rr.writeJSONResponse(w, HealthResponse{
		Status:  "ok",
		Uptime:  int64(time.Since(rr.startedAt).Seconds()),
		Cache:   rr.service.CacheSnapshot(),
		Sources: infos,
	})
}

// clearCache handles GET /clear-cache
func (rr *Routes) clearCache(w http.ResponseWriter, _ *http.Request) {
	rr.service.ClearCache()
	rr.writeJSONResponse(w, StatusResponse{Status: "cache cleared"})
}

// testSources handles GET /test-sources
func (rr *Routes) testSources(w http.ResponseWriter, r *http.Request) {
	rr.writeJSONResponse(w, ProbeResponse{Results: rr.service.ProbeAll(r.Context())})
}

// getVersion handles GET /version
func (rr *Routes) getVersion(w http.ResponseWriter, _ *http.Request) {
	rr.writeJSONResponse(w, VersionResponse{
		Version: versions.Version,
		Commit:  versions.Commit,
	})
}

func (*Routes) writeJSONResponse(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func (*Routes) writeErrorResponse(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("Failed to encode error response: %v", err)
	}
}
