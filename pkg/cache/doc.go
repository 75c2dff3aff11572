// Package cache is a typed key-value cache with in-process and Redis
// backends behind one interface. Handlers develop against [Memory]
// and deploy against [Redis] without changing call sites.
//
// Reads use a comma-ok shape; a miss is not an error:
//
//	c := cache.NewMemory[Profile](cache.WithDefaultTTL(5 * time.Minute))
//	defer c.Close()
//
//	if p, ok, err := c.Get(ctx, "profile:42"); err == nil && ok {
//	    return p, nil
//	}
//
// Set's TTL argument follows one rule everywhere: positive expires
// after the duration, zero applies the cache default, negative never
// expires.
//
// The Redis backend shares entries across processes, serializing
// values through a [Codec] (JSON unless told otherwise):
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	c := cache.NewRedis[Profile](client, nil,
//	    cache.WithKeyPrefix("profiles"),
//	)
//
// Wrap either backend in a [Loader] when misses are expensive to
// recompute; concurrent misses for one key collapse into a single
// call:
//
//	loader := cache.NewLoader[Profile](c)
//	p, err := loader.Load(ctx, "profile:42", func(ctx context.Context) (Profile, time.Duration, error) {
//	    p, err := repo.Profile(ctx, 42)
//	    return p, 5 * time.Minute, err
//	})
//
// The middlewares package builds its page cache on this interface;
// see middlewares.PageCache.
package cache
