package cache

import (
	"fmt"

	"github.com/riftwatch/riftwatch/internal/domain"
)

// New creates a cache tier based on configuration: a bounded local LRU by
// default, or Redis when instances share state.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		if cfg.EnableTwoPhase {
			return NewTwoPhaseCache(cfg.LocalMaxSize, cfg.LocalTTL, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
