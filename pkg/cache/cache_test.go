package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom/pkg/cache"
)

func TestMemoryRoundtrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "greeting", "hello", time.Minute))

		v, ok, err := c.Get(ctx, "greeting")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "hello", v)
	})

	t.Run("miss is not an error", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		v, ok, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, v)
	})

	t.Run("overwrite replaces value", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "n", 1, 0))
		require.NoError(t, c.Set(ctx, "n", 2, 0))

		v, ok, _ := c.Get(ctx, "n")
		require.True(t, ok)
		assert.Equal(t, 2, v)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", "v", 0))
		require.NoError(t, c.Delete(ctx, "k"))
		require.NoError(t, c.Delete(ctx, "k"), "deleting an absent key is fine")

		_, ok, _ := c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "a", "1", 0))
		require.NoError(t, c.Set(ctx, "b", "2", 0))
		require.NoError(t, c.Clear(ctx))

		assert.Zero(t, c.Len())
	})

	t.Run("struct values", func(t *testing.T) {
		t.Parallel()

		type profile struct {
			Name string
			Age  int
		}
		c := cache.NewMemory[profile]()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "p", profile{Name: "Ada", Age: 36}, 0))

		v, ok, _ := c.Get(ctx, "p")
		require.True(t, ok)
		assert.Equal(t, profile{Name: "Ada", Age: 36}, v)
	})
}

func TestMemoryTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("explicit ttl expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithSweepInterval(0))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
		time.Sleep(40 * time.Millisecond)

		_, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("zero ttl takes the default", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](
			cache.WithDefaultTTL(20*time.Millisecond),
			cache.WithSweepInterval(0),
		)
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", "v", 0))
		time.Sleep(40 * time.Millisecond)

		_, ok, _ := c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("negative ttl never expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](
			cache.WithDefaultTTL(10*time.Millisecond),
			cache.WithSweepInterval(0),
		)
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", "v", -1))
		time.Sleep(30 * time.Millisecond)

		_, ok, _ := c.Get(ctx, "k")
		assert.True(t, ok)
	})

	t.Run("sweeper drops expired entries without reads", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithSweepInterval(10 * time.Millisecond))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "short", "v", 15*time.Millisecond))
		require.NoError(t, c.Set(ctx, "long", "v", time.Minute))

		assert.Eventually(t, func() bool {
			return c.Len() == 1
		}, time.Second, 10*time.Millisecond, "the sweeper should drop the expired entry")
	})
}

func TestMemoryLRU(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("evicts the least recently used", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](cache.WithCapacity(2))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "a", 1, 0))
		require.NoError(t, c.Set(ctx, "b", 2, 0))
		require.NoError(t, c.Set(ctx, "c", 3, 0))

		_, ok, _ := c.Get(ctx, "a")
		assert.False(t, ok, "oldest entry should be gone")
		_, ok, _ = c.Get(ctx, "b")
		assert.True(t, ok)
		_, ok, _ = c.Get(ctx, "c")
		assert.True(t, ok)
	})

	t.Run("reads refresh recency", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](cache.WithCapacity(2))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "a", 1, 0))
		require.NoError(t, c.Set(ctx, "b", 2, 0))

		// Touch a so b becomes the eviction candidate.
		_, _, _ = c.Get(ctx, "a")
		require.NoError(t, c.Set(ctx, "c", 3, 0))

		_, ok, _ := c.Get(ctx, "a")
		assert.True(t, ok)
		_, ok, _ = c.Get(ctx, "b")
		assert.False(t, ok)
	})

	t.Run("overwrite does not evict", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](cache.WithCapacity(2))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "a", 1, 0))
		require.NoError(t, c.Set(ctx, "b", 2, 0))
		require.NoError(t, c.Set(ctx, "a", 10, 0))

		assert.Equal(t, 2, c.Len())
		v, ok, _ := c.Get(ctx, "a")
		require.True(t, ok)
		assert.Equal(t, 10, v)
	})
}

func TestMemoryClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewMemory[string]()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "close is idempotent")

	assert.ErrorIs(t, c.Set(ctx, "x", "y", 0), cache.ErrClosed)
	assert.ErrorIs(t, c.Delete(ctx, "k"), cache.ErrClosed)
	assert.ErrorIs(t, c.Clear(ctx), cache.ErrClosed)
}

func TestLoader(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("miss computes and stores", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()
		loader := cache.NewLoader(c)

		calls := 0
		load := func(context.Context) (string, time.Duration, error) {
			calls++
			return "computed", time.Minute, nil
		}

		v, err := loader.Load(ctx, "k", load)
		require.NoError(t, err)
		assert.Equal(t, "computed", v)

		v, err = loader.Load(ctx, "k", load)
		require.NoError(t, err)
		assert.Equal(t, "computed", v)
		assert.Equal(t, 1, calls, "the second load should hit the cache")
	})

	t.Run("error leaves the cache untouched", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()
		loader := cache.NewLoader(c)

		boom := errors.New("backend down")
		_, err := loader.Load(ctx, "k", func(context.Context) (string, time.Duration, error) {
			return "", 0, boom
		})
		require.ErrorIs(t, err, boom)

		_, ok, _ := c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("concurrent misses compute once", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()
		loader := cache.NewLoader(c)

		var calls atomic.Int32
		var wg sync.WaitGroup
		for range 20 {
			wg.Go(func() {
				v, err := loader.Load(ctx, "dedup", func(context.Context) (int, time.Duration, error) {
					calls.Add(1)
					time.Sleep(20 * time.Millisecond)
					return 7, time.Minute, nil
				})
				assert.NoError(t, err)
				assert.Equal(t, 7, v)
			})
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load(), "one flight should serve all concurrent misses")
	})

	t.Run("invalidate forces a recompute", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()
		loader := cache.NewLoader(c)

		calls := 0
		load := func(context.Context) (int, time.Duration, error) {
			calls++
			return calls, time.Minute, nil
		}

		v, _ := loader.Load(ctx, "k", load)
		assert.Equal(t, 1, v)

		require.NoError(t, loader.Invalidate(ctx, "k"))

		v, _ = loader.Load(ctx, "k", load)
		assert.Equal(t, 2, v)
	})
}

func TestJSONCodec(t *testing.T) {
	t.Parallel()

	t.Run("roundtrip", func(t *testing.T) {
		t.Parallel()

		type profile struct {
			Name string `json:"name"`
		}
		codec := cache.JSONCodec[profile]{}

		data, err := codec.Encode(profile{Name: "Ada"})
		require.NoError(t, err)

		v, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, profile{Name: "Ada"}, v)
	})

	t.Run("encode failure wraps sentinel", func(t *testing.T) {
		t.Parallel()

		codec := cache.JSONCodec[chan int]{}
		_, err := codec.Encode(make(chan int))
		assert.ErrorIs(t, err, cache.ErrEncode)
	})

	t.Run("decode failure wraps sentinel", func(t *testing.T) {
		t.Parallel()

		codec := cache.JSONCodec[int]{}
		_, err := codec.Decode([]byte("not json"))
		assert.ErrorIs(t, err, cache.ErrDecode)
	})
}
