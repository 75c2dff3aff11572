package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/loom/pkg/cookie"
	"github.com/dmitrymomot/loom/pkg/health"
	"github.com/dmitrymomot/loom/pkg/logger"
	"github.com/dmitrymomot/loom/pkg/storage"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// defaultValidationTarget is where validation-failure fragments land
// unless WithValidationTarget overrides it.
const defaultValidationTarget = "#form-errors"

// App orchestrates the request pipeline: routing, middleware, content
// negotiation, and error dispatch.
//
// An App has two phases. During setup, routes, middleware, error
// handlers, filters, and globals may be registered freely; the app is
// single-goroutine at this point, like any constructor. The first call
// to Run or ServeHTTP freezes the app: the route table is compiled, the
// middleware chain is composed, and the result is published atomically.
// From then on request handling touches only immutable state, and any
// further registration attempt panics.
type App struct {
	// construction-time services
	logger           *slog.Logger
	cookieManager    *cookie.Manager
	sessionManager   *SessionManager
	storage          storage.Storage
	engine           TemplateEngine
	healthConfig     *healthConfig
	baseDomain       string
	validationTarget string
	debug            bool

	// setup-phase registrations, consumed by freeze
	pendingRoutes     []*Route
	pendingMW         []Middleware
	pendingFilters    []namedValue
	pendingGlobals    []namedValue
	errRegs           []errorRegistration
	codeRegs          map[int]ErrorHandler
	defaultErrHandler ErrorHandler

	// immutable after freeze
	router    *compiledRouter
	chain     HandlerFunc
	freezeErr error

	mu     sync.Mutex
	frozen atomic.Bool
}

// New creates an application with the given options. Registration
// happens afterwards, on the returned app:
//
//	app := loom.New(
//	    loom.WithTemplates(views),
//	    loom.WithMiddleware(middlewares.RequestID()),
//	)
//	app.GET("/posts/{id:int}", showPost).Named("post.show")
func New(opts ...Option) *App {
	app := &App{
		logger:           logger.NewNope(),
		cookieManager:    cookie.New(),
		validationTarget: defaultValidationTarget,
	}

	for _, opt := range opts {
		opt(app)
	}
	return app
}

func (app *App) log() *slog.Logger {
	return app.logger
}

// Debug reports whether the app runs with debug diagnostics enabled.
func (app *App) Debug() bool {
	return app.debug
}

// ensureSetup guards registration methods. Calling one after the app
// started serving is a lifecycle bug, reported at the call site rather
// than surfacing as a silently missing route.
func (app *App) ensureSetup(op string) {
	if app.frozen.Load() {
		panic(fmt.Sprintf("loom: %s after the app started serving; register everything before Run or the first request", op))
	}
}

// Freeze compiles the route table, composes middleware chains, and
// publishes the result. It is idempotent and safe for concurrent use:
// exactly one caller compiles, everyone else observes the published
// outcome. Run calls it eagerly so structural mistakes fail startup;
// ServeHTTP calls it lazily to support httptest-style usage without a
// server.
func (app *App) Freeze() error {
	if app.frozen.Load() {
		return app.freezeErr
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	if app.frozen.Load() {
		return app.freezeErr
	}

	app.freezeErr = app.compile()
	// Publish only after compiled state is fully built. The atomic
	// store pairs with the Load in ServeHTTP.
	app.frozen.Store(true)
	return app.freezeErr
}

func (app *App) compile() error {
	if err := app.validateConfig(); err != nil {
		return err
	}

	app.registerHealthRoutes()

	router, err := compileRoutes(app.pendingRoutes)
	if err != nil {
		return err
	}

	for _, rt := range app.pendingRoutes {
		rt.composed = buildChain(app.routeTerminal(rt), rt.middleware)
	}

	if err := app.registerEngineExtensions(); err != nil {
		return err
	}

	app.router = router
	app.chain = buildChain(app.dispatch, app.pendingMW)
	return nil
}

// validateConfig fails the freeze on configuration the app cannot
// serve with. Catching these at startup beats a 500 on whichever
// request first touches the misconfigured feature.
func (app *App) validateConfig() error {
	if err := app.cookieManager.Validate(); err != nil {
		return fmt.Errorf("loom: cookie configuration: %w", err)
	}
	if app.sessionManager != nil && app.sessionManager.Store() == nil {
		return fmt.Errorf("loom: WithSession requires a non-nil store")
	}
	return nil
}

func (app *App) registerHealthRoutes() {
	if app.healthConfig == nil {
		return
	}
	live := health.LivenessHandler()
	ready := health.ReadinessHandler(app.healthConfig.checks)

	r := app.root()
	r.GET(app.healthConfig.livenessPath, func(c Context) (any, error) {
		live(c.Response(), c.HTTPRequest())
		return nil, nil
	})
	r.GET(app.healthConfig.readinessPath, func(c Context) (any, error) {
		ready(c.Response(), c.HTTPRequest())
		return nil, nil
	})
}

func (app *App) registerEngineExtensions() error {
	if len(app.pendingFilters) == 0 && len(app.pendingGlobals) == 0 {
		return nil
	}
	if app.engine == nil {
		return fmt.Errorf("loom: filters and globals need a template engine: %w", ErrNoTemplateEngine)
	}

	if len(app.pendingFilters) > 0 {
		fr, ok := app.engine.(FilterRegistrar)
		if !ok {
			return fmt.Errorf("loom: template engine %T does not support filters", app.engine)
		}
		for _, f := range app.pendingFilters {
			if err := fr.RegisterFilter(f.name, f.value); err != nil {
				return fmt.Errorf("loom: register filter %q: %w", f.name, err)
			}
		}
	}

	if len(app.pendingGlobals) > 0 {
		gr, ok := app.engine.(GlobalRegistrar)
		if !ok {
			return fmt.Errorf("loom: template engine %T does not support globals", app.engine)
		}
		for _, g := range app.pendingGlobals {
			if err := gr.RegisterGlobal(g.name, g.value); err != nil {
				return fmt.Errorf("loom: register global %q: %w", g.name, err)
			}
		}
	}
	return nil
}

// routeTerminal builds the innermost link of a route's chain: invoke
// the handler and negotiate its return value, so middleware up the
// chain observes a concrete Responder.
func (app *App) routeTerminal(rt *Route) HandlerFunc {
	return func(c Context) (any, error) {
		value, err := rt.Handler(c)
		if err != nil {
			return nil, err
		}
		if value == nil && c.Written() {
			// The handler wrote through the raw ResponseWriter; the
			// response is out of the framework's hands.
			return nil, nil
		}
		return app.negotiate(c, value)
	}
}

// dispatch is the terminal of the app-level chain: resolve the matched
// route's composed chain, or raise the structural 404/405. Running
// after the app middleware means middleware observes unmatched requests
// too and can short-circuit them.
func (app *App) dispatch(c Context) (any, error) {
	rc, ok := c.(*requestContext)
	if !ok {
		return nil, ErrInternal("unsupported context implementation")
	}

	if rc.match == nil {
		req := c.Request()
		if len(rc.allowed) > 0 {
			return nil, ErrMethodNotAllowed(
				fmt.Sprintf("method %s is not allowed for %s (allowed: %s)",
					req.Method(), req.Path(), strings.Join(rc.allowed, ", ")),
				rc.allowed,
			)
		}
		return nil, ErrNotFound(fmt.Sprintf("no route matches %s", req.Path()))
	}
	return rc.match.Route.composed(c)
}

// URL builds the path for a named route. During setup it scans pending
// registrations; after freeze it uses the compiled index.
func (app *App) URL(name string, params map[string]string) (string, error) {
	if app.frozen.Load() {
		if app.router == nil {
			return "", fmt.Errorf("loom: app failed to start: %w", app.freezeErr)
		}
		return app.router.reverse(name, params)
	}

	for _, rt := range app.pendingRoutes {
		if rt.name == name {
			return buildPath(rt.Pattern, rt.segments, params)
		}
	}
	return "", fmt.Errorf("loom: no route named %q", name)
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)
