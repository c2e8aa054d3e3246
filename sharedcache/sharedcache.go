// Package sharedcache provides the shared TTL cache tier used by the
// taxonomy engine. Implementations must be byte-for-byte transparent: Get
// returns exactly the bytes previously passed to Set for a key, and a miss
// is (nil, false, nil), never an error. The tier is shared across
// concurrent requests with last-write-wins semantics; no client-side
// locking is required of callers.
package sharedcache

import (
	"context"
	"time"
)

// Store is a minimal byte store with per-entry TTLs and prefix eviction.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// An IO/remote failure returns (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL. A non-positive TTL
	// stores the entry without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys (best-effort; missing keys are not an error).
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix removes every key sharing the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Ping reports whether the tier is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
