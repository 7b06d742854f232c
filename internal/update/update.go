// Package update defines the canonical update record and the normalization
// mapping from provisional source records.
package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/sfr-mod/update-server/internal/sources"
)

// Update is the canonical update description returned to all callers
// regardless of the originating source. Every field is always populated.
type Update struct {
	// Version is the release version without a leading "v" prefix
	Version string `json:"version"`

	// URL points at the distributable archive
	URL string `json:"url"`

	// Changelog is the release notes text
	Changelog string `json:"changelog"`

	// Size is the archive size in bytes
	Size int64 `json:"size"`

	// Date is the release date as an ISO-8601 UTC timestamp
	Date string `json:"date"`

	// Source is the display name of the source that produced the record
	Source string `json:"source"`
}

// isoMillis renders timestamps with millisecond precision; in UTC the zone
// suffix renders as "Z".
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// timestampLayouts are the source-native date formats accepted by Normalize,
// tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize maps a provisional source record into the canonical Update.
// The mapping is pure: identical input always produces identical output.
func Normalize(raw *sources.RawRelease) (*Update, error) {
	if raw == nil {
		return nil, fmt.Errorf("raw release cannot be nil")
	}

	if raw.DownloadURL == "" {
		return nil, fmt.Errorf("raw release missing download URL")
	}

	if raw.Version == "" {
		return nil, fmt.Errorf("raw release missing version")
	}

	changelog := raw.Changelog
	if changelog == "" {
		changelog = sources.PlaceholderChangelog
	}

	return &Update{
		Version:   strings.TrimPrefix(raw.Version, "v"),
		URL:       raw.DownloadURL,
		Changelog: changelog,
		Size:      raw.FileSizeBytes,
		Date:      normalizeTimestamp(raw.ReleaseTimestamp),
		Source:    raw.SourceName,
	}, nil
}

// normalizeTimestamp re-renders a source-native date as ISO-8601 UTC with
// millisecond precision. Unparseable values pass through verbatim so a
// cosmetic date problem never fails an otherwise good fetch.
func normalizeTimestamp(ts string) string {
	if ts == "" {
		return ""
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC().Format(isoMillis)
		}
	}

	return ts
}
