package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/medsearch-ai/medsearch/cache"
	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/llm"
)

// Gateway returns query embeddings, preferring cached vectors keyed by the
// exact input text. The cache is a pure optimization: backend failures
// propagate to the caller, which owns the fallback decision.
type Gateway struct {
	provider llm.Provider
	cache    cache.Cache
	ttl      time.Duration
}

// NewGateway builds a gateway. ttl bounds how long cached vectors live.
func NewGateway(provider llm.Provider, c cache.Cache, ttl time.Duration) *Gateway {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Gateway{provider: provider, cache: c, ttl: ttl}
}

// Embed returns the vector for text, from cache when possible.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if g.cache != nil {
		if raw, ok := g.cache.Get(ctx, key); ok {
			var vec []float32
			if err := json.Unmarshal(raw, &vec); err == nil && len(vec) > 0 {
				logger.Debugf("embedding: cache hit for %q", truncate(text, 50))
				return vec, nil
			}
			// corrupt entry, fall through to a fresh request
		}
	}

	vec, err := g.provider.Embed(ctx, text, llm.EmbedQuery)
	if err != nil {
		return nil, err
	}
	if g.cache != nil {
		if raw, err := json.Marshal(vec); err == nil {
			g.cache.SetWithTTL(ctx, key, raw, g.ttl)
		}
	}
	return vec, nil
}

func cacheKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
