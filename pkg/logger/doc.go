// Package logger builds the slog loggers used across the framework:
// JSON output, attributes pulled from the request context, and an
// optional Sentry destination for error tracking.
//
// The zero-option form writes Info and above to stdout:
//
//	log := logger.New()
//	log.Info("listening", "addr", ":8080")
//
// Context extractors enrich every record with request-scoped values.
// The request ID middleware ships one:
//
//	log := logger.New(
//	    logger.WithExtractors(middlewares.RequestIDExtractor()),
//	)
//	log.InfoContext(ctx, "contact saved", "id", contact.ID)
//	// {"msg":"contact saved","id":"c_9qj3","request_id":"req_kf82..."}
//
// Sentry is a second destination, not a replacement: records keep
// flowing to the local output, errors additionally open Sentry
// issues. An empty DSN disables it, so the same wiring runs in
// development:
//
//	log := logger.New(
//	    logger.WithSentry(logger.SentryConfig{DSN: os.Getenv("SENTRY_DSN")}),
//	)
//	app.Run(addr, loom.ShutdownHook(logger.SentryShutdown(2*time.Second)))
//
// NewContextHandler is the building block behind New. It wraps any
// slog.Handler, so extractors also work with handlers this package
// does not construct:
//
//	h := logger.NewContextHandler(slog.NewTextHandler(os.Stderr, nil), extractor)
//	log := slog.New(h)
package logger
