package db

import (
	"io/fs"
	"log/slog"
	"time"
)

// Option adjusts how Open builds the connection pool.
type Option func(*config)

type config struct {
	maxConns int32
	minConns int32

	connIdleTime time.Duration
	connLifetime time.Duration
	pingPeriod   time.Duration

	attempts int
	backoff  time.Duration

	migrations      fs.FS
	migrationsTable string
	log             *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{
		maxConns:        10,
		minConns:        2,
		connIdleTime:    10 * time.Minute,
		connLifetime:    30 * time.Minute,
		pingPeriod:      time.Minute,
		attempts:        3,
		backoff:         2 * time.Second,
		migrationsTable: "schema_migrations",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMaxConns caps the pool size. The default of 10 suits a single
// web process in front of a shared database.
func WithMaxConns(n int32) Option {
	return func(cfg *config) {
		cfg.maxConns = n
	}
}

// WithMinConns keeps n connections warm between bursts.
func WithMinConns(n int32) Option {
	return func(cfg *config) {
		cfg.minConns = n
	}
}

// WithConnIdleTime closes connections idle longer than d.
func WithConnIdleTime(d time.Duration) Option {
	return func(cfg *config) {
		cfg.connIdleTime = d
	}
}

// WithConnLifetime retires connections older than d, so the pool
// keeps up with failovers and connection poolers that rebalance.
func WithConnLifetime(d time.Duration) Option {
	return func(cfg *config) {
		cfg.connLifetime = d
	}
}

// WithPingPeriod sets how often the pool probes idle connections.
func WithPingPeriod(d time.Duration) Option {
	return func(cfg *config) {
		cfg.pingPeriod = d
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

// WithMigrations applies the goose migrations in fsys before Open
// returns, so the pool only ever serves a current schema. The fsys
// root must hold the migration files themselves; for an embedded
// subdirectory, pass the result of fs.Sub.
func WithMigrations(fsys fs.FS) Option {
	return func(cfg *config) {
		cfg.migrations = fsys
	}
}

// WithMigrationsTable overrides goose's version table name.
func WithMigrationsTable(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.migrationsTable = name
		}
	}
}

// WithLogger routes migration progress to log instead of slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(cfg *config) {
		cfg.log = log
	}
}
