// Package sources provides interfaces and implementations for retrieving
// release metadata from the configured upstream update sources.
//
// The package defines the SourceHandler interface which abstracts the
// process of validating a source configuration and fetching release
// metadata from it, together with a Registry that orders the configured
// sources for fallback.
//
// Architecture:
//   - SourceHandler: interface for fetching release metadata from one source
//   - HandlerFactory: creates the handler matching a source's configured type
//   - Registry: orders enabled sources by ascending priority
//   - RawRelease: provisional release record produced by a handler, consumed
//     by the normalizer
//
// Current implementations:
//   - githubSourceHandler: reads a GitHub-style releases API endpoint and
//     selects the main distributable asset by filename
//   - staticSourceHandler: reads a static metadata JSON document and maps
//     its fields directly
//
// Handlers perform exactly one fetch attempt per invocation; fallback and
// retry policy live in the coordinator, not here.
package sources
