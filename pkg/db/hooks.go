package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Healthcheck adapts a pool ping to the shape readiness probes expect:
//
//	loom.WithHealthChecks(
//	    loom.WithReadinessCheck("db", db.Healthcheck(pool)),
//	)
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil {
			return ErrUnhealthy
		}
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrUnhealthy, err)
		}
		return nil
	}
}

// Shutdown closes the pool when the app drains:
//
//	app.Run(":8080", loom.ShutdownHook(db.Shutdown(pool)))
func Shutdown(pool *pgxpool.Pool) func(context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}
