// Package redis opens Redis clients with retrying dials and lifecycle
// glue for loom apps.
//
// Open parses a redis:// or rediss:// URL, dials with a doubling
// backoff, and pings before returning, so a returned client is known
// to answer:
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"),
//	    redis.WithPoolSize(20),
//	)
//
// One client serves sessions, caching, and pub/sub alike:
//
//	app := loom.New(
//	    loom.WithSession(sessionstore.New(client)),
//	    loom.WithHealthChecks(
//	        loom.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	    ),
//	)
//	err := app.Run(":8080", loom.ShutdownHook(redis.Shutdown(client)))
package redis
