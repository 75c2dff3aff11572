package internal

import (
	"log/slog"

	"github.com/dmitrymomot/loom/pkg/cookie"
	"github.com/dmitrymomot/loom/pkg/health"
	"github.com/dmitrymomot/loom/pkg/logger"
	"github.com/dmitrymomot/loom/pkg/session"
	"github.com/dmitrymomot/loom/pkg/storage"
)

// Option configures the application.
type Option func(*App)

// WithTemplates sets the template engine used by Page, Fragment,
// Stream, and the other template directives.
//
// Example:
//
//	views, err := htmlview.New(templatesFS,
//	    htmlview.WithLayout("layouts/base.html"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app := loom.New(loom.WithTemplates(views))
func WithTemplates(engine TemplateEngine) Option {
	return func(a *App) {
		a.engine = engine
	}
}

// WithDebug enables debug diagnostics: error pages carry the error
// chain and panic stacks, and event streams default to detailed error
// payloads. Never enable in production; the diagnostics expose error
// messages, stack frames, and request details.
func WithDebug(debug bool) Option {
	return func(a *App) {
		a.debug = debug
	}
}

// WithValidationTarget sets the CSS selector validation-failure
// fragments are retargeted to on htmx requests. Defaults to
// "#form-errors".
func WithValidationTarget(selector string) Option {
	return func(a *App) {
		if selector != "" {
			a.validationTarget = selector
		}
	}
}

// WithBaseDomain configures the base domain for subdomain extraction.
// This enables c.Subdomain() to work without parameters.
//
// Example:
//
//	loom.New(
//	    loom.WithBaseDomain("example.com"),
//	)
func WithBaseDomain(domain string) Option {
	return func(a *App) {
		a.baseDomain = domain
	}
}

// WithMiddleware adds app-level middleware, outermost first. App
// middleware wraps route dispatch, so it also observes requests that
// end in 404 or 405.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.pendingMW = append(a.pendingMW, mw...)
	}
}

// WithHandlers registers handler bundles that declare routes.
// Each bundle's Routes method runs immediately.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		for _, handler := range h {
			handler.Routes(a.root())
		}
	}
}

// WithErrorHandler sets the default error handler, consulted when no
// type, sentinel, or status registration matches. Equivalent to
// calling OnErrorDefault.
//
// Example:
//
//	loom.WithErrorHandler(func(c loom.Context, err error) (any, error) {
//	    return loom.Page("errors/oops", loom.M{"error": err}), nil
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.defaultErrHandler = h
	}
}

// WithHealthChecks mounts the two probe endpoints, /health/live and
// /health/ready by default. Liveness reports process-up and nothing
// else; readiness runs every registered check and fails when any of
// them does.
//
// Example:
//
//	loom.WithHealthChecks(
//	    loom.WithReadinessCheck("db", db.Healthcheck(pool)),
//	    loom.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath overrides the liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return func(cfg *healthConfig) {
		cfg.livenessPath = path
	}
}

// WithReadinessPath overrides the readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return func(cfg *healthConfig) {
		cfg.readinessPath = path
	}
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(cfg *healthConfig) {
		cfg.checks[name] = fn
	}
}

// WithLogger builds the app logger: every record carries the component
// attribute, and the given extractors lift request-scoped values such
// as the request id out of the context into log attributes.
//
// Example:
//
//	loom.New(
//	    loom.WithLogger("web", middlewares.RequestIDExtractor()),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(logger.WithExtractors(extractors...)).With("component", component)
	}
}

// WithCustomLogger installs an slog.Logger as-is, bypassing the
// framework's handler entirely. Nil keeps the default.
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCookieOptions rebuilds the cookie manager with the given
// settings. Signed and encrypted cookie helpers need cookie.WithSecret
// here; without it they report ErrNoSecret at request time.
//
// Example:
//
//	loom.New(
//	    loom.WithCookieOptions(
//	        cookie.WithSecret(os.Getenv("COOKIE_SECRET")),
//	        cookie.WithSecure(true),
//	    ),
//	)
func WithCookieOptions(opts ...cookie.Option) Option {
	return func(a *App) {
		a.cookieManager = cookie.New(opts...)
	}
}

// WithSession wires server-side sessions backed by store. Nothing is
// loaded until a handler touches the session, and dirty sessions are
// persisted while the response commits, so handlers never save
// explicitly.
//
// Example:
//
//	store := postgres.NewSessionStore(pool)
//	loom.New(
//	    loom.WithSession(store,
//	        loom.WithSessionCookieName("__sid"),
//	        loom.WithSessionMaxAge(86400 * 30),
//	    ),
//	)
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) {
		a.sessionManager = NewSessionManager(store, opts...)
	}
}

// WithStorage backs the Context file helpers (Upload, Download,
// FileURL, DeleteFile) with the given object store. Without it those
// helpers report storage.ErrNotConfigured.
//
// Example:
//
//	store, err := storage.New(storage.Config{
//	    Bucket:    "uploads",
//	    AccessKey: os.Getenv("S3_ACCESS_KEY"),
//	    SecretKey: os.Getenv("S3_SECRET_KEY"),
//	})
//	loom.New(
//	    loom.WithStorage(store),
//	)
func WithStorage(s storage.Storage) Option {
	return func(a *App) {
		a.storage = s
	}
}
