// Package cache holds the snapshot store used to paint list views before a
// remote round-trip resolves. Snapshots are a latency-hiding hint, never a
// correctness source: a successful remote fetch always supersedes them.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss signals a cache miss in a typed way, so callers can tell misses
// from transport errors.
var ErrMiss = errors.New("cache: miss")

// Cache is the minimal key-value contract the snapshot layer needs.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get fetches the value for key, returning ErrMiss when absent.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value at key. Zero TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}
