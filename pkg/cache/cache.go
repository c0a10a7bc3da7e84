// Package cache provides pluggable byte caches for rendered frames and
// HTTP responses.
//
// # Backends
//
// Three implementations cover the deployment spectrum:
//
//   - [NewFileCache]: entries as files under a sharded directory, for CLI
//     and single-host use.
//   - [NewRedisCache]: shared cache for multi-instance deployments.
//   - [NewNullCache]: stores nothing, for tests and cache-off runs.
//
// # Keys
//
// A [Keyer] turns render inputs into stable cache keys. [FrameKey] hashes
// the full snapshot fingerprint, so any change to data or view state maps
// to a fresh key and stale frames simply age out instead of being
// invalidated. [NewScopedKeyer] prefixes keys for tenant isolation.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with optional expiry.
//
// Get reports a miss with ok=false and a nil error; errors are reserved for
// backend failures. A zero ttl on Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
