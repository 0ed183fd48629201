package providers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "drone-configurator/internal/common/errors"
	"drone-configurator/internal/common/database"
	"drone-configurator/internal/common/logger"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, *database.RedisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, database.NewRedisFromClient(rdb)
}

func TestCachedProvider_MissThenHit(t *testing.T) {
	mr, cache := setupCache(t)
	inner := &fakeProvider{id: "openai", available: true, result: AttemptResult{Succeeded: true, RawText: "fresh answer"}}
	p := NewCachedProvider(inner, cache, time.Hour, logger.NewTestLogger(t))

	first := p.Generate(context.Background(), "composed")
	require.True(t, first.Succeeded)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, inner.Calls())

	key := CacheKey("openai", "openai-model", "composed")
	stored, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "fresh answer", stored)
	assert.Equal(t, time.Hour, mr.TTL(key))

	second := p.Generate(context.Background(), "composed")
	require.True(t, second.Succeeded)
	assert.True(t, second.Cached)
	assert.Equal(t, "fresh answer", second.RawText)
	assert.Equal(t, 1, inner.Calls())
}

func TestCachedProvider_FailuresAreNotStored(t *testing.T) {
	mr, cache := setupCache(t)
	inner := &fakeProvider{id: "openai", available: true, result: AttemptResult{
		Err: apperrors.NewProviderBadStatusError("openai", 502, ""),
	}}
	p := NewCachedProvider(inner, cache, time.Hour, logger.NewTestLogger(t))

	result := p.Generate(context.Background(), "composed")

	assert.False(t, result.Succeeded)
	assert.Empty(t, mr.Keys())
}

func TestCachedProvider_UnavailableBypassesCache(t *testing.T) {
	mr, cache := setupCache(t)
	key := CacheKey("openai", "openai-model", "composed")
	mr.Set(key, "stale answer")

	inner := &fakeProvider{id: "openai", available: false, result: AttemptResult{Skipped: true}}
	p := NewCachedProvider(inner, cache, time.Hour, logger.NewTestLogger(t))

	result := p.Generate(context.Background(), "composed")

	assert.False(t, result.Succeeded)
	assert.True(t, result.Skipped)
}

func TestCachedProvider_CacheOutageFallsThrough(t *testing.T) {
	mr, cache := setupCache(t)
	mr.Close()

	inner := &fakeProvider{id: "openai", available: true, result: AttemptResult{Succeeded: true, RawText: "answer"}}
	p := NewCachedProvider(inner, cache, time.Hour, logger.NewTestLogger(t))

	result := p.Generate(context.Background(), "composed")

	require.True(t, result.Succeeded)
	assert.Equal(t, "answer", result.RawText)
	assert.Equal(t, 1, inner.Calls())
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("openai", "gpt-4", "prompt")

	assert.Equal(t, a, CacheKey("openai", "gpt-4", "prompt"))
	assert.NotEqual(t, a, CacheKey("anthropic", "gpt-4", "prompt"))
	assert.NotEqual(t, a, CacheKey("openai", "gpt-4o", "prompt"))
	assert.NotEqual(t, a, CacheKey("openai", "gpt-4", "prompt2"))
	assert.Contains(t, a, "specgen:answer:openai:")
}
