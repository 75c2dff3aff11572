//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom/pkg/cache"
	"github.com/dmitrymomot/loom/pkg/redis"
)

func testRedisClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}

	client, err := redis.Open(context.Background(), url)
	require.NoError(t, err, "failed to connect to Redis")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisCacheRoundtrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := testRedisClient(t)

	type profile struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	c := cache.NewRedis[profile](client, nil, cache.WithKeyPrefix("it-roundtrip"))
	t.Cleanup(func() { _ = c.Clear(ctx) })

	_, ok, err := c.Get(ctx, "p")
	require.NoError(t, err)
	assert.False(t, ok, "fresh key should miss")

	require.NoError(t, c.Set(ctx, "p", profile{Name: "Ada", Age: 36}, time.Minute))

	v, ok, err := c.Get(ctx, "p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, profile{Name: "Ada", Age: 36}, v)

	require.NoError(t, c.Delete(ctx, "p"))
	_, ok, _ = c.Get(ctx, "p")
	assert.False(t, ok)
}

func TestRedisCacheTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := testRedisClient(t)

	t.Run("explicit ttl expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewRedis[string](client, nil, cache.WithKeyPrefix("it-ttl"))
		t.Cleanup(func() { _ = c.Clear(ctx) })

		require.NoError(t, c.Set(ctx, "k", "v", 100*time.Millisecond))
		time.Sleep(200 * time.Millisecond)

		_, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("zero ttl takes the default", func(t *testing.T) {
		t.Parallel()

		c := cache.NewRedis[string](client, nil,
			cache.WithKeyPrefix("it-default-ttl"),
			cache.WithDefaultTTL(100*time.Millisecond),
		)
		t.Cleanup(func() { _ = c.Clear(ctx) })

		require.NoError(t, c.Set(ctx, "k", "v", 0))
		time.Sleep(200 * time.Millisecond)

		_, ok, _ := c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("negative ttl persists", func(t *testing.T) {
		t.Parallel()

		c := cache.NewRedis[string](client, nil,
			cache.WithKeyPrefix("it-persist"),
			cache.WithDefaultTTL(100*time.Millisecond),
		)
		t.Cleanup(func() { _ = c.Clear(ctx) })

		require.NoError(t, c.Set(ctx, "k", "v", -1))
		time.Sleep(200 * time.Millisecond)

		_, ok, _ := c.Get(ctx, "k")
		assert.True(t, ok)
	})
}

func TestRedisCacheClearScopedToPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := testRedisClient(t)

	mine := cache.NewRedis[string](client, nil, cache.WithKeyPrefix("it-clear-mine"))
	other := cache.NewRedis[string](client, nil, cache.WithKeyPrefix("it-clear-other"))
	t.Cleanup(func() {
		_ = mine.Clear(ctx)
		_ = other.Clear(ctx)
	})

	require.NoError(t, mine.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, mine.Set(ctx, "b", "2", time.Minute))
	require.NoError(t, other.Set(ctx, "a", "3", time.Minute))

	require.NoError(t, mine.Clear(ctx))

	_, ok, _ := mine.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = mine.Get(ctx, "b")
	assert.False(t, ok)

	v, ok, _ := other.Get(ctx, "a")
	require.True(t, ok, "clear must not cross prefixes")
	assert.Equal(t, "3", v)
}
