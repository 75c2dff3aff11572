package logger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// ErrSentryFlush reports that buffered events could not be delivered
// before the flush deadline.
var ErrSentryFlush = errors.New("logger: sentry flush timed out")

// SentryConfig configures the optional Sentry destination. The env
// tags let applications that load configuration through caarlos0/env
// fill it straight from the environment.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`

	// MinLevel is the lowest level forwarded to Sentry as a log
	// entry. nil means slog.LevelWarn. Errors open issues regardless
	// of this setting.
	MinLevel slog.Leveler
}

// WithSentry adds Sentry as a second log destination. An empty DSN
// leaves the logger untouched, so the same wiring works in
// development without a Sentry project.
func WithSentry(cfg SentryConfig) Option {
	return func(c *config) {
		c.sentry = &cfg
	}
}

// newSentryHandler initializes the SDK and builds the Sentry handler.
// It returns nil when Sentry is not configured; an init failure is
// reported through fallback rather than aborting, so the application
// keeps its local logs.
func newSentryHandler(cfg SentryConfig, fallback slog.Handler) slog.Handler {
	if cfg.DSN == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		EnableLogs:  true,
	})
	if err != nil {
		slog.New(fallback).Error("sentry init failed", "error", err)
		return nil
	}

	// Errors become issues; everything from MinLevel up is kept as
	// searchable log context around them.
	return sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   sentryLevels(cfg.MinLevel),
	}.NewSentryHandler(context.Background())
}

// sentryLevels expands a minimum level into the explicit list the
// Sentry handler expects.
func sentryLevels(min slog.Leveler) []slog.Level {
	floor := slog.LevelWarn
	if min != nil {
		floor = min.Level()
	}
	var levels []slog.Level
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l >= floor {
			levels = append(levels, l)
		}
	}
	return levels
}

// SentryShutdown returns a shutdown hook that flushes buffered Sentry
// events. Events reported shortly before exit are lost without it.
// The hook is a no-op when Sentry was never initialized.
//
//	app.Run(addr, loom.ShutdownHook(logger.SentryShutdown(2*time.Second)))
func SentryShutdown(timeout time.Duration) func(context.Context) error {
	return func(context.Context) error {
		if sentry.CurrentHub().Client() == nil {
			return nil
		}
		if !sentry.Flush(timeout) {
			return ErrSentryFlush
		}
		return nil
	}
}
