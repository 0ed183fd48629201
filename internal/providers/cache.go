package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"drone-configurator/internal/common/database"
	"drone-configurator/internal/common/logger"
	"drone-configurator/internal/common/metrics"
)

// AnswerCache stores raw provider answers. database.RedisClient satisfies it.
type AnswerCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
}

// CachedProvider serves repeated prompts from the cache. Only successful raw
// answers are stored; extracted specifications never are.
type CachedProvider struct {
	inner  Provider
	cache  AnswerCache
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProvider(inner Provider, cache AnswerCache, ttl time.Duration, log logger.Logger) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"provider": inner.ID(), "component": "answer-cache"}),
	}
}

func (c *CachedProvider) ID() string      { return c.inner.ID() }
func (c *CachedProvider) Model() string   { return c.inner.Model() }
func (c *CachedProvider) Available() bool { return c.inner.Available() }

// CacheKey derives the cache key from provider, model and composed prompt.
func CacheKey(providerID, model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return "specgen:answer:" + providerID + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedProvider) Generate(ctx context.Context, prompt string) AttemptResult {
	if !c.inner.Available() {
		return c.inner.Generate(ctx, prompt)
	}

	key := CacheKey(c.inner.ID(), c.inner.Model(), prompt)

	val, err := c.cache.Get(ctx, key)
	switch {
	case err == nil && val != "":
		metrics.CacheLookups.WithLabelValues(c.inner.ID(), "hit").Inc()
		return AttemptResult{
			ProviderID: c.inner.ID(),
			Succeeded:  true,
			Cached:     true,
			RawText:    val,
		}
	case err != nil && !errors.Is(err, database.ErrCacheMiss):
		c.logger.Warn("answer cache read failed", map[string]interface{}{"error": err.Error()})
		metrics.CacheLookups.WithLabelValues(c.inner.ID(), "error").Inc()
	default:
		metrics.CacheLookups.WithLabelValues(c.inner.ID(), "miss").Inc()
	}

	result := c.inner.Generate(ctx, prompt)
	if result.Succeeded {
		if err := c.cache.Set(ctx, key, result.RawText, c.ttl); err != nil {
			c.logger.Warn("answer cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return result
}
