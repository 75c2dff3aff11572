package logger

import (
	"io"
	"log/slog"
	"os"
)

// Option configures the logger built by New.
type Option func(*config)

type config struct {
	output     io.Writer
	level      slog.Leveler
	extractors []ContextExtractor
	sentry     *SentryConfig
}

func newConfig(opts []Option) config {
	cfg := config{
		output: os.Stdout,
		level:  slog.LevelInfo,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithOutput redirects log output. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(cfg *config) {
		if w != nil {
			cfg.output = w
		}
	}
}

// WithLevel sets the minimum level that is logged. The default is
// slog.LevelInfo.
func WithLevel(level slog.Leveler) Option {
	return func(cfg *config) {
		if level != nil {
			cfg.level = level
		}
	}
}

// WithExtractors appends context extractors. Each one runs on every
// log call, so request-scoped values such as request IDs show up
// without being passed around explicitly.
func WithExtractors(extractors ...ContextExtractor) Option {
	return func(cfg *config) {
		cfg.extractors = append(cfg.extractors, extractors...)
	}
}

// New builds a JSON logger. With no options it writes Info and above
// to stdout. Extractors and the Sentry handler, when configured, see
// every record.
func New(opts ...Option) *slog.Logger {
	cfg := newConfig(opts)

	var h slog.Handler = slog.NewJSONHandler(cfg.output, &slog.HandlerOptions{
		Level: cfg.level,
	})
	if cfg.sentry != nil {
		if sh := newSentryHandler(*cfg.sentry, h); sh != nil {
			h = fanout(h, sh)
		}
	}
	return slog.New(NewContextHandler(h, cfg.extractors...))
}

// NewNope returns a logger that discards everything. It is the
// default inside the framework until an application installs its own.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
