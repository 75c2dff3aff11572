package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader fills cache misses through a compute function, collapsing
// concurrent misses for the same key into a single call.
type Loader[V any] struct {
	cache Cache[V]
	group singleflight.Group
}

// NewLoader wraps a cache with miss deduplication. Each Loader owns
// its flight group, so the same key in two loaders computes
// independently.
func NewLoader[V any](c Cache[V]) *Loader[V] {
	return &Loader[V]{cache: c}
}

// Load returns the value under key, running fn on a miss. fn reports
// the value and the TTL to store it with; an error from fn leaves the
// cache untouched. Goroutines that miss the same key while fn runs
// wait for it and share the result.
func (l *Loader[V]) Load(ctx context.Context, key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, ok, err := l.cache.Get(ctx, key); err == nil && ok {
		return v, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		val, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		// Best effort: a failed store still serves the computed value.
		_ = l.cache.Set(ctx, key, val, ttl)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Invalidate drops key from the underlying cache.
func (l *Loader[V]) Invalidate(ctx context.Context, key string) error {
	return l.cache.Delete(ctx, key)
}
