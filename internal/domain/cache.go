package domain

import (
	"context"
	"time"
)

// Cache defines the shared byte-level cache tier behind the typed caches.
// Implementations must be safe for concurrent use.
//
// Get returns nil, nil on a miss; callers never treat a miss as an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with expiration. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Stats returns current entry count and capacity.
	Stats() (size int, capacity int)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis".
	// Redis is only needed when several instances should share a tier;
	// a single process runs fine on the bounded LRU.
	Type string

	// Local LRU settings
	LocalMaxSize int

	// LocalTTL caps L1 residency when the redis type layers both tiers.
	LocalTTL time.Duration

	// EnableTwoPhase layers the local LRU in front of Redis.
	EnableTwoPhase bool

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}
