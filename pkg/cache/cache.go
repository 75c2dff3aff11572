package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrClosed is returned by writes to a closed cache.
	ErrClosed = errors.New("cache: closed")

	// ErrEncode wraps codec failures on the way into the store.
	ErrEncode = errors.New("cache: encode value")

	// ErrDecode wraps codec failures on the way out of the store.
	ErrDecode = errors.New("cache: decode value")
)

// Cache is a typed key-value store with per-entry TTL.
type Cache[V any] interface {
	// Get returns the value stored under key. The second result is
	// false when the key is absent or expired.
	Get(ctx context.Context, key string) (V, bool, error)

	// Set stores value under key. A positive ttl expires the entry
	// after that duration, zero applies the cache's default TTL, and
	// a negative ttl keeps the entry until deleted or evicted.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear drops every entry the cache owns.
	Clear(ctx context.Context) error

	// Close releases background resources.
	Close() error
}

// Option tunes a cache backend. Knobs that do not apply to a backend
// are ignored: capacity and sweeping are in-memory concerns, key
// prefixes a Redis one.
type Option func(*config)

type config struct {
	defaultTTL time.Duration
	capacity   int
	sweepEvery time.Duration
	prefix     string
}

func newConfig(opts []Option) config {
	cfg := config{
		defaultTTL: time.Hour,
		sweepEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithDefaultTTL sets the expiry applied when Set is called with a
// zero ttl. Default one hour.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *config) {
		c.defaultTTL = d
	}
}

// WithCapacity caps the number of in-memory entries; past the cap the
// least recently used entry is evicted. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

// WithSweepInterval sets how often the in-memory cache drops expired
// entries in the background. Zero disables the sweeper; expired
// entries then linger until read. Default one minute.
func WithSweepInterval(d time.Duration) Option {
	return func(c *config) {
		c.sweepEvery = d
	}
}

// WithKeyPrefix namespaces Redis keys as "{prefix}:{key}", letting
// several caches share one Redis database. Clear only touches keys
// under the prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}
