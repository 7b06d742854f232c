package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sfr-mod/update-server/internal/config"
	"github.com/sfr-mod/update-server/internal/httpclient"
)

// staticMetadata models the static update metadata document
type staticMetadata struct {
	Version     string `json:"version"`
	DownloadURL string `json:"downloadUrl"`
	FileSize    int64  `json:"fileSize"`
	Changelog   string `json:"changelog"`
	ReleaseDate string `json:"releaseDate"`
}

// staticSourceHandler fetches release metadata from a static metadata
// JSON document
type staticSourceHandler struct {
	client httpclient.Client
}

// NewStaticSourceHandler creates a new static-metadata source handler
func NewStaticSourceHandler(client httpclient.Client) SourceHandler {
	return &staticSourceHandler{
		client: client,
	}
}

// Validate validates the static-metadata source configuration
func (*staticSourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}

	if source.Type != config.SourceTypeStatic {
		return fmt.Errorf("invalid source type: expected %s, got %s",
			config.SourceTypeStatic, source.Type)
	}

	if source.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	return nil
}

// Fetch retrieves the metadata document and maps its fields directly
func (h *staticSourceHandler) Fetch(ctx context.Context, source *config.SourceConfig) (*RawRelease, error) {
	if err := h.Validate(source); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	body, err := h.client.Get(ctx, source.Endpoint)
	if err != nil {
		return nil, err
	}

	var meta staticMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata document: %w", err)
	}

	if meta.Version == "" {
		return nil, fmt.Errorf("metadata document missing required field: version")
	}
	if meta.DownloadURL == "" {
		return nil, fmt.Errorf("metadata document missing required field: downloadUrl")
	}

	changelog := meta.Changelog
	if changelog == "" {
		changelog = PlaceholderChangelog
	}

	return &RawRelease{
		Version:          meta.Version,
		DownloadURL:      meta.DownloadURL,
		FileSizeBytes:    meta.FileSize,
		Changelog:        changelog,
		ReleaseTimestamp: meta.ReleaseDate,
		SourceName:       source.Name,
	}, nil
}
