// A small contact book showing the framework end to end: full pages,
// htmx fragments with out-of-band updates, validation re-renders, a
// streamed export, Redis-backed sessions, and a live activity feed
// over Server-Sent Events.
//
// It needs a local Redis for sessions and pub/sub:
//
//	docker run --rm -p 6379:6379 redis:7
//	go run ./example
//
// Setting SENTRY_DSN additionally reports errors to Sentry.
package main

import (
	"context"
	"os"
	"time"

	"github.com/dmitrymomot/loom"
	"github.com/dmitrymomot/loom/example/handlers"
	"github.com/dmitrymomot/loom/example/repository"
	"github.com/dmitrymomot/loom/example/views"
	"github.com/dmitrymomot/loom/middlewares"
	"github.com/dmitrymomot/loom/pkg/logger"
	"github.com/dmitrymomot/loom/pkg/pubsub"
	"github.com/dmitrymomot/loom/pkg/redis"
	sessionstore "github.com/dmitrymomot/loom/pkg/session/redis"
)

func main() {
	ctx := context.Background()
	log := logger.New(
		logger.WithExtractors(middlewares.RequestIDExtractor()),
		logger.WithSentry(logger.SentryConfig{
			DSN:         os.Getenv("SENTRY_DSN"),
			Environment: getEnv("SENTRY_ENVIRONMENT", "development"),
		}),
	)

	client := redis.MustOpen(ctx, getEnv("REDIS_URL", "redis://localhost:6379/0"))
	broker := pubsub.New(client)

	repo := repository.NewContacts()
	repo.Seed()

	app := loom.New(
		loom.WithTemplates(views.New()),
		loom.WithDebug(getEnv("DEBUG", "true") == "true"),
		loom.WithCustomLogger(log),
		loom.WithCookieOptions(
			loom.WithCookieSecret(getEnv("COOKIE_SECRET", "insecure-dev-secret-change-me-in-prod")),
		),
		loom.WithSession(sessionstore.New(client)),

		loom.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.Logger(),
		),

		loom.WithHandlers(
			handlers.NewPages(repo),
			handlers.NewContacts(repo, broker),
			handlers.NewActivity(broker),
		),

		loom.WithHealthChecks(
			loom.WithReadinessCheck("redis", redis.Healthcheck(client)),
		),
	)

	err := app.Run(getEnv("ADDRESS", ":8080"),
		loom.ShutdownTimeout(15*time.Second),
		loom.ShutdownHook(redis.Shutdown(client)),
		loom.ShutdownHook(logger.SentryShutdown(2*time.Second)),
	)
	if err != nil {
		log.Error("application error", "error", err)
		os.Exit(1)
	}
}

// getEnv returns the environment variable's value, or a default when
// it is unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
