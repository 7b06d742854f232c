package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sfr-mod/update-server/internal/config"
	"github.com/sfr-mod/update-server/internal/httpclient"
)

// ErrNoModAsset is returned when a release carries no asset matching the
// package extension or the mod identifier.
//
//nolint:staticcheck // ST1005: message text is part of the response contract
var ErrNoModAsset = errors.New("No valid mod file found in release")

// githubRelease models the subset of a GitHub-style release response the
// handler consumes.
type githubRelease struct {
	TagName     string        `json:"tag_name"`
	Body        string        `json:"body"`
	PublishedAt string        `json:"published_at"`
	Assets      []githubAsset `json:"assets"`
}

// githubAsset models one downloadable asset attached to a release
type githubAsset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// githubSourceHandler fetches release metadata from a GitHub-style releases
// API endpoint
type githubSourceHandler struct {
	client httpclient.Client
	mod    config.ModConfig
}

// NewGitHubSourceHandler creates a new release-API source handler
func NewGitHubSourceHandler(client httpclient.Client, mod config.ModConfig) SourceHandler {
	return &githubSourceHandler{
		client: client,
		mod:    mod,
	}
}

// Validate validates the release-API source configuration
func (*githubSourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}

	if source.Type != config.SourceTypeGitHub {
		return fmt.Errorf("invalid source type: expected %s, got %s",
			config.SourceTypeGitHub, source.Type)
	}

	if source.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	return nil
}

// Fetch retrieves the latest release from the releases endpoint and selects
// the main distributable asset
func (h *githubSourceHandler) Fetch(ctx context.Context, source *config.SourceConfig) (*RawRelease, error) {
	if err := h.Validate(source); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	body, err := h.client.Get(ctx, source.Endpoint)
	if err != nil {
		return nil, err
	}

	var release githubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("failed to parse release response: %w", err)
	}

	asset, ok := h.selectMainAsset(release.Assets)
	if !ok {
		return nil, ErrNoModAsset
	}

	changelog := release.Body
	if changelog == "" {
		changelog = PlaceholderChangelog
	}

	return &RawRelease{
		Version:          strings.TrimPrefix(release.TagName, "v"),
		DownloadURL:      asset.BrowserDownloadURL,
		FileSizeBytes:    asset.Size,
		Changelog:        changelog,
		ReleaseTimestamp: release.PublishedAt,
		SourceName:       source.Name,
	}, nil
}

// selectMainAsset picks the distributable archive from the release's asset
// list: first asset whose name ends with the package extension, else first
// asset whose name contains the mod identifier. Matching is case-insensitive.
func (h *githubSourceHandler) selectMainAsset(assets []githubAsset) (githubAsset, bool) {
	ext := strings.ToLower(h.packageExtension())
	for _, asset := range assets {
		if strings.HasSuffix(strings.ToLower(asset.Name), ext) {
			return asset, true
		}
	}

	identifier := strings.ToLower(h.mod.Identifier)
	if identifier != "" {
		for _, asset := range assets {
			if strings.Contains(strings.ToLower(asset.Name), identifier) {
				return asset, true
			}
		}
	}

	return githubAsset{}, false
}

func (h *githubSourceHandler) packageExtension() string {
	if h.mod.PackageExtension == "" {
		return config.DefaultPackageExtension
	}
	return h.mod.PackageExtension
}
