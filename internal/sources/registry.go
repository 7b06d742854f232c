package sources

import (
	"sort"

	"github.com/sfr-mod/update-server/internal/config"
)

// Registry holds the configured update sources for the process lifetime and
// orders them for fallback. It is immutable after construction.
type Registry struct {
	sources []config.SourceConfig
}

// NewRegistry creates a registry over the configured sources.
// The slice is copied; later mutation of the caller's slice has no effect.
func NewRegistry(sources []config.SourceConfig) *Registry {
	copied := make([]config.SourceConfig, len(sources))
	copy(copied, sources)

	return &Registry{sources: copied}
}

// EnabledByPriority returns the enabled sources in ascending priority order.
// Sources with equal priority retain their configured relative order.
func (r *Registry) EnabledByPriority() []config.SourceConfig {
	enabled := make([]config.SourceConfig, 0, len(r.sources))
	for _, src := range r.sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	// Stable sort keeps configured order for equal priorities.
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})

	return enabled
}

// All returns every configured source, enabled or not, in configured order.
func (r *Registry) All() []config.SourceConfig {
	copied := make([]config.SourceConfig, len(r.sources))
	copy(copied, r.sources)
	return copied
}
