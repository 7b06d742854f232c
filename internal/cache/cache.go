// Package cache provides the single-slot TTL cache for the latest
// normalized update record.
package cache

import (
	"sync"
	"time"

	"github.com/sfr-mod/update-server/internal/update"
)

// Snapshot is a read-only view of the cache state for observability.
// Taking a snapshot never extends or invalidates the TTL window.
type Snapshot struct {
	// Valid reports whether the entry would currently be served
	Valid bool `json:"valid"`

	// Source is the display name of the source that produced the entry,
	// empty when the cache has never been filled
	Source string `json:"source,omitempty"`

	// AgeSeconds is the entry's age; nil when the cache is empty
	AgeSeconds *int64 `json:"age,omitempty"`
}

// Cache is a single shared slot holding the last normalized update, its
// capture time, and the source that produced it. The data and capture time
// are always set and cleared together.
//
// A mutex guards the slot: replacing a multi-word entry is not atomic with
// respect to readers in Go, so concurrent refreshes need the lock. Writes
// are wholesale replaces, last writer wins.
type Cache struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time

	data       *update.Update
	capturedAt time.Time
	sourceName string
}

// New creates an empty cache with the given time-to-live
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl: ttl,
		now: time.Now,
	}
}

// IsValid reports whether an entry is present and younger than the TTL
func (c *Cache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.validLocked()
}

func (c *Cache) validLocked() bool {
	return c.data != nil && c.now().Sub(c.capturedAt) < c.ttl
}

// Get returns the cached update, or nil when no valid entry exists.
// An expired entry is never returned, even though it is still in memory.
func (c *Cache) Get() *update.Update {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.validLocked() {
		return nil
	}
	return c.data
}

// Store atomically replaces the entry with the given update and source name,
// stamping the capture time. Any prior entry is overwritten unconditionally.
func (c *Cache) Store(u *update.Update, sourceName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = u
	c.capturedAt = c.now()
	c.sourceName = sourceName
}

// Clear resets the cache to the empty entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = nil
	c.capturedAt = time.Time{}
	c.sourceName = ""
}

// Describe returns a read-only snapshot of the cache state.
// An expired entry still reports its source and age, with Valid false.
func (c *Cache) Describe() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{Valid: c.validLocked()}
	if c.data != nil {
		snap.Source = c.sourceName
		age := int64(c.now().Sub(c.capturedAt).Seconds())
		snap.AgeSeconds = &age
	}
	return snap
}

// LastKnownVersion returns the version of the stored entry regardless of
// freshness, for change logging only. It must never be served to callers.
func (c *Cache) LastKnownVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil {
		return ""
	}
	return c.data.Version
}
