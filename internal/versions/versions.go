// Package versions provides version comparison and build information for
// the update server.
package versions

import "github.com/Masterminds/semver/v3"

// Build metadata, overridable at link time via -ldflags.
var (
	// Version is the server's own release version
	Version = "dev"

	// Commit is the VCS revision the server was built from
	Commit = "unknown"
)

// IsNewer reports whether candidate is strictly greater than current.
// Semantic versioning is used when both strings parse as semver; otherwise
// the comparison falls back to lexicographic ordering.
func IsNewer(candidate, current string) bool {
	candidateSemver, errCandidate := semver.NewVersion(candidate)
	currentSemver, errCurrent := semver.NewVersion(current)

	if errCandidate != nil || errCurrent != nil {
		return candidate > current
	}

	return candidateSemver.GreaterThan(currentSemver)
}
