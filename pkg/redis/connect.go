package redis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option adjusts how Open builds the client.
type Option func(*config)

type config struct {
	poolSize     int
	minIdleConns int

	connIdleTime time.Duration
	connLifetime time.Duration

	dialTimeout time.Duration
	ioTimeout   time.Duration

	attempts int
	backoff  time.Duration
}

func newConfig(opts []Option) config {
	cfg := config{
		poolSize:     10,
		minIdleConns: 2,
		connIdleTime: 10 * time.Minute,
		connLifetime: 30 * time.Minute,
		dialTimeout:  5 * time.Second,
		ioTimeout:    3 * time.Second,
		attempts:     3,
		backoff:      2 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPoolSize caps the number of pooled connections.
func WithPoolSize(n int) Option {
	return func(cfg *config) {
		cfg.poolSize = n
	}
}

// WithMinIdleConns keeps n connections warm between bursts.
func WithMinIdleConns(n int) Option {
	return func(cfg *config) {
		cfg.minIdleConns = n
	}
}

// WithConnIdleTime closes connections idle longer than d.
func WithConnIdleTime(d time.Duration) Option {
	return func(cfg *config) {
		cfg.connIdleTime = d
	}
}

// WithConnLifetime retires connections older than d.
func WithConnLifetime(d time.Duration) Option {
	return func(cfg *config) {
		cfg.connLifetime = d
	}
}

// WithDialTimeout bounds how long a single dial may take.
func WithDialTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.dialTimeout = d
	}
}

// WithIOTimeout bounds individual reads and writes on a connection.
func WithIOTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.ioTimeout = d
	}
}

// WithConnectRetry dials up to attempts times, doubling the wait
// between tries starting from backoff.
func WithConnectRetry(attempts int, backoff time.Duration) Option {
	return func(cfg *config) {
		cfg.attempts = attempts
		cfg.backoff = backoff
	}
}

// Open creates a Redis client from a redis:// or rediss:// URL and
// verifies it with a ping before returning. Unreachable servers are
// retried with a doubling backoff.
//
// Example:
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"),
//	    redis.WithPoolSize(20),
//	)
func Open(ctx context.Context, url string, opts ...Option) (redis.UniversalClient, error) {
	cfg := newConfig(opts)

	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	ro.PoolSize = cfg.poolSize
	ro.MinIdleConns = cfg.minIdleConns
	ro.ConnMaxIdleTime = cfg.connIdleTime
	ro.ConnMaxLifetime = cfg.connLifetime
	ro.DialTimeout = cfg.dialTimeout
	ro.ReadTimeout = cfg.ioTimeout
	ro.WriteTimeout = cfg.ioTimeout

	return dial(ctx, ro, cfg.attempts, cfg.backoff)
}

// MustOpen is Open for programs whose startup cannot proceed without
// Redis. It logs the error and exits.
func MustOpen(ctx context.Context, url string, opts ...Option) redis.UniversalClient {
	client, err := Open(ctx, url, opts...)
	if err != nil {
		slog.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	return client
}

// dial creates the client and pings it, waiting twice as long after
// each failed attempt.
func dial(ctx context.Context, ro *redis.Options, attempts int, backoff time.Duration) (redis.UniversalClient, error) {
	attempts = max(attempts, 1)

	var lastErr error
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrConnect, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		client := redis.NewClient(ro)
		err := client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		_ = client.Close()
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrConnect, lastErr)
}
