package redis

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

// Healthcheck adapts a client ping to the shape readiness probes
// expect:
//
//	loom.WithHealthChecks(
//	    loom.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrUnhealthy
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnhealthy, err)
		}
		return nil
	}
}

// Shutdown closes the client when the app drains:
//
//	app.Run(":8080", loom.ShutdownHook(redis.Shutdown(client)))
func Shutdown(client io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}
