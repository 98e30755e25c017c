package cache

import (
	"context"
	"time"

	"github.com/medsearch-ai/medsearch/config"
)

// Cache is the shared byte cache used for embeddings and fused search
// results. Implementations must be safe for concurrent use; values are
// idempotent functions of their keys, so racing writers are harmless.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration)
	Purge(ctx context.Context)
}

// New builds a cache from configuration.
func New(cfg config.CacheConfig) (Cache, error) {
	if cfg.Provider == "redis" {
		return NewRedis(cfg)
	}
	return NewLRU(cfg.Capacity, time.Duration(cfg.SearchResultTTLSec)*time.Second), nil
}
