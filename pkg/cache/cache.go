// Package cache stores computed layouts and rendered artifacts.
//
// Layouts are deterministic for a given document, tier and configuration, so
// the pipeline keys them by a content hash and reuses them across runs. Three
// backends implement [Cache]:
//
//   - [FileCache] writes entries under a local directory (CLI default)
//   - [RedisCache] shares entries between API replicas
//   - [NullCache] disables caching
//
// Keys are produced by a [Keyer]. [ScopedKeyer] prefixes every key so several
// tenants can share one backend.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry type.
const (
	// TTLLayout is how long computed layouts stay cached.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact is how long rendered outputs (SVG, PNG, ...) stay cached.
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means the entry does not expire.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}
