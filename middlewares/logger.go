package middlewares

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/loom/internal"
)

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// Skip reports paths that should not be logged, typically health
	// probes and static assets.
	Skip func(path string) bool
}

// LoggerOption configures LoggerConfig.
type LoggerOption func(*LoggerConfig)

// WithLoggerSkip sets a predicate for paths to leave out of the log.
func WithLoggerSkip(skip func(path string) bool) LoggerOption {
	return func(cfg *LoggerConfig) {
		cfg.Skip = skip
	}
}

// Logger returns middleware that logs one line per request with method,
// path, status, and duration. Because route handlers are negotiated
// before middleware sees their result, the status comes straight off
// the returned response; requests that end in an error are logged with
// the error and resolve their status in error dispatch afterwards.
//
// Install it outermost (before RequestID is fine; RequestID's extractor
// attaches the id through the log context, not through ordering).
func Logger(opts ...LoggerOption) internal.Middleware {
	cfg := &LoggerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (any, error) {
			req := c.Request()
			if cfg.Skip != nil && cfg.Skip(req.Path()) {
				return next(c)
			}

			start := time.Now()
			value, err := next(c)
			elapsed := time.Since(start)

			attrs := []any{
				slog.String("method", req.Method()),
				slog.String("path", req.Path()),
				slog.Duration("duration", elapsed),
			}

			switch {
			case err != nil:
				c.LogWarn("request failed", append(attrs, slog.Any("error", err))...)
			default:
				if coded, ok := value.(interface{ StatusCode() int }); ok {
					attrs = append(attrs, slog.Int("status", coded.StatusCode()))
				} else if c.Written() {
					attrs = append(attrs, slog.Int("status", c.ResponseWriter().Status()))
				}
				c.LogInfo("request", attrs...)
			}

			return value, err
		}
	}
}
