package sources

import (
	"context"

	"github.com/sfr-mod/update-server/internal/config"
)

// PlaceholderChangelog is substituted when an upstream release carries no
// changelog text.
const PlaceholderChangelog = "No changelog provided"

// SourceHandler is an interface with methods to fetch release metadata from
// one upstream source. A handler performs exactly one fetch attempt per
// invocation; the caller bounds the attempt with the request context.
type SourceHandler interface {
	// Fetch retrieves release metadata from the source and returns the
	// provisional record
	Fetch(ctx context.Context, source *config.SourceConfig) (*RawRelease, error)

	// Validate validates the source configuration
	Validate(source *config.SourceConfig) error
}

// RawRelease is the provisional release record produced by a source handler.
// Every field is populated before the record leaves the handler; defaults
// are substituted for values the upstream omits.
type RawRelease struct {
	// Version is the release version as the source reports it; tag-style "v"
	// prefixes may still be present and are stripped during normalization
	Version string

	// DownloadURL points at the distributable archive
	DownloadURL string

	// FileSizeBytes is the size of the distributable archive
	FileSizeBytes int64

	// Changelog is the release notes text, never empty
	Changelog string

	// ReleaseTimestamp is the release date in the source's native format
	ReleaseTimestamp string

	// SourceName is the display name of the source that produced the record
	SourceName string
}

// HandlerFactory creates source handlers based on source type
type HandlerFactory interface {
	// CreateHandler creates a source handler for the given source type
	CreateHandler(sourceType string) (SourceHandler, error)
}
