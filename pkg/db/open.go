package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open establishes a PostgreSQL connection pool and verifies it with a
// ping before returning. Unreachable databases are retried with a
// doubling backoff. When WithMigrations is set, pending migrations run
// before the pool is handed back.
//
// Example:
//
//	pool, err := db.Open(ctx, os.Getenv("DATABASE_URL"),
//	    db.WithMigrations(migrationsFS),
//	    db.WithMinConns(2),
//	)
func Open(ctx context.Context, url string, opts ...Option) (*pgxpool.Pool, error) {
	cfg := newConfig(opts)

	pc, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	pc.MaxConns = cfg.maxConns
	pc.MinConns = cfg.minConns
	pc.MaxConnIdleTime = cfg.connIdleTime
	pc.MaxConnLifetime = cfg.connLifetime
	pc.HealthCheckPeriod = cfg.pingPeriod

	pool, err := dial(ctx, pc, cfg.attempts, cfg.backoff)
	if err != nil {
		return nil, err
	}

	if cfg.migrations != nil {
		log := cfg.log
		if log == nil {
			log = slog.Default()
		}
		if err := Migrate(ctx, pool, cfg.migrations, cfg.migrationsTable, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return pool, nil
}

// MustOpen is Open for programs whose startup cannot proceed without a
// database. It logs the error and exits.
func MustOpen(ctx context.Context, url string, opts ...Option) *pgxpool.Pool {
	pool, err := Open(ctx, url, opts...)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	return pool
}

// dial creates the pool and pings it, waiting twice as long after each
// failed attempt.
func dial(ctx context.Context, pc *pgxpool.Config, attempts int, backoff time.Duration) (*pgxpool.Pool, error) {
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

		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrConnect, lastErr)
}
