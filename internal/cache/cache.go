// Package cache stores rendered pages for a short time. Redis is used when
// configured so every server process shares one cache; otherwise entries
// live in process memory.
package cache

import (
	"context"
	"time"
)

// Store is a byte cache with per-entry expiry
type Store interface {
	// Get returns the value and true on a hit, or false on a miss or expiry
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear drops every entry the store owns
	Clear(ctx context.Context) error
	// Name labels the backend in logs and metrics
	Name() string
}

// Ensure both backends implement Store
var (
	_ Store = (*RedisClient)(nil)
	_ Store = (*MemoryStore)(nil)
)
