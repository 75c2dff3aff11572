package internal

import (
	"context"
	"log/slog"
	"time"
)

// RunOption configures the server runtime.
type RunOption func(*runConfig)

// runConfig collects everything the runtime needs to serve: where to
// listen, which apps answer which hosts, and the hooks bracketing the
// server's lifetime.
type runConfig struct {
	address         string
	logger          *slog.Logger
	shutdownTimeout time.Duration
	startupHooks    []func(context.Context) error
	shutdownHooks   []func(context.Context) error
	domains         map[string]*App
	fallback        *App
	baseCtx         context.Context
}

func newRunConfig(opts []RunOption) *runConfig {
	cfg := &runConfig{
		domains:         make(map[string]*App),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Address sets the listen address. Defaults to ":8080".
func Address(addr string) RunOption {
	return func(c *runConfig) {
		if addr == "" {
			return
		}
		c.address = addr
	}
}

// Logger sets the runtime logger used for lifecycle messages. Without
// one, App.Run falls back to the app's logger and the package-level Run
// stays silent.
func Logger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l == nil {
			return
		}
		c.logger = l
	}
}

// ShutdownTimeout bounds graceful shutdown, covering both the HTTP
// server drain and the shutdown hooks. Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d <= 0 {
			return
		}
		c.shutdownTimeout = d
	}
}

// StartupHook registers a function to run before the server starts
// accepting traffic. Hooks run in registration order; a failure aborts
// startup.
//
// Example:
//
//	loom.StartupHook(func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
func StartupHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn == nil {
			return
		}
		c.startupHooks = append(c.startupHooks, fn)
	}
}

// ShutdownHook registers a cleanup function to run during shutdown, in
// registration order. Each hook receives a context bounded by the
// shutdown timeout.
//
// Example:
//
//	loom.ShutdownHook(db.Shutdown(pool))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn == nil {
			return
		}
		c.shutdownHooks = append(c.shutdownHooks, fn)
	}
}

// Domain routes a host pattern to an App. Patterns are either exact
// ("api.example.com") or single-label wildcards ("*.example.com").
//
// Example:
//
//	loom.Run(
//	    loom.Domain("api.acme.com", apiApp),
//	    loom.Domain("*.acme.com", tenantApp),
//	)
func Domain(pattern string, app *App) RunOption {
	return func(c *runConfig) {
		if pattern == "" || app == nil {
			return
		}
		c.domains[pattern] = app
	}
}

// Fallback sets the App answering requests no domain pattern matches.
// With no domains configured at all, the fallback is the only handler.
//
// Example:
//
//	loom.Run(
//	    loom.Domain("api.acme.com", apiApp),
//	    loom.Fallback(landingApp),
//	)
func Fallback(app *App) RunOption {
	return func(c *runConfig) {
		if app == nil {
			return
		}
		c.fallback = app
	}
}

// WithContext replaces context.Background as the base for signal
// handling, for tests and for embedding the server under an existing
// context hierarchy.
func WithContext(ctx context.Context) RunOption {
	return func(c *runConfig) {
		if ctx == nil {
			return
		}
		c.baseCtx = ctx
	}
}
