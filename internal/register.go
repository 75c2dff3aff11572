package internal

import (
	"fmt"
	"io/fs"
	"net/http"
	"slices"
	"strings"
)

// Router is the interface handlers use to declare routes. Registration
// methods return the new *Route so it can be named for URL reversal:
//
//	r.GET("/posts/{id:int}", showPost).Named("post.show")
//
// All registration must happen before the app starts serving; the
// route table is compiled once and is immutable afterwards.
type Router interface {
	// GET registers a handler for GET requests.
	GET(path string, h HandlerFunc, mw ...Middleware) *Route

	// POST registers a handler for POST requests.
	POST(path string, h HandlerFunc, mw ...Middleware) *Route

	// PUT registers a handler for PUT requests.
	PUT(path string, h HandlerFunc, mw ...Middleware) *Route

	// PATCH registers a handler for PATCH requests.
	PATCH(path string, h HandlerFunc, mw ...Middleware) *Route

	// DELETE registers a handler for DELETE requests.
	DELETE(path string, h HandlerFunc, mw ...Middleware) *Route

	// HEAD registers a handler for HEAD requests. Routes without an
	// explicit HEAD handler serve HEAD through their GET handler with
	// the body stripped.
	HEAD(path string, h HandlerFunc, mw ...Middleware) *Route

	// OPTIONS registers a handler for OPTIONS requests.
	OPTIONS(path string, h HandlerFunc, mw ...Middleware) *Route

	// Handle registers a handler for an arbitrary method.
	Handle(method, path string, h HandlerFunc, mw ...Middleware) *Route

	// Route creates a route group sharing a pattern prefix.
	Route(prefix string, fn func(r Router))

	// Group creates an inline group sharing middleware but no prefix.
	Group(fn func(r Router))

	// Use appends middleware for routes registered after this call
	// within the current group.
	Use(mw ...Middleware)

	// Mount attaches a plain http.Handler under a prefix, for legacy
	// handlers and third-party routers. The prefix is stripped before
	// the handler sees the path. Mounted handlers write directly and
	// bypass negotiation.
	Mount(prefix string, h http.Handler)

	// Static serves an embedded file tree under a prefix. subDir names
	// the directory inside fsys to serve, since go:embed keeps the
	// directory itself in the file paths:
	//
	//	//go:embed assets
	//	var assets embed.FS
	//	r.Static("/assets", assets, "assets")
	//
	// Pass "." to serve fsys as-is. Directory listings are disabled;
	// files are served with default cache headers.
	Static(prefix string, fsys fs.FS, subDir string)
}

// mountMethods are the methods a mounted handler responds to.
var mountMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// registrar implements Router against the app's pending route table.
// Groups derive child registrars with an extended prefix or middleware
// stack; the app itself delegates its registration methods to a root
// registrar.
type registrar struct {
	app    *App
	prefix string
	mw     []Middleware
}

func (r *registrar) GET(path string, h HandlerFunc, mw ...Middleware) *Route {
	return r.handle(http.MethodGet, path, h, mw)
}

func (r *registrar) POST(path string, h HandlerFunc, mw ...Middleware) *Route {
	return r.handle(http.MethodPost, path, h, mw)
}

func (r *registrar) PUT(path string, h HandlerFunc, mw ...Middleware) *Route {
	return r.handle(http.MethodPut, path, h, mw)
}

func (r *registrar) PATCH(path string, h HandlerFunc, mw ...Middleware) *Route {
	return r.handle(http.MethodPatch, path, h, mw)
}

func (r *registrar) DELETE(path string, h HandlerFunc, mw ...Middleware) *Route {
	return r.handle(http.MethodDelete, path, h, mw)
}

func (r *registrar) HEAD(path string, h HandlerFunc, mw ...Middleware) *Route {
	return r.handle(http.MethodHead, path, h, mw)
}

func (r *registrar) OPTIONS(path string, h HandlerFunc, mw ...Middleware) *Route {
	return r.handle(http.MethodOptions, path, h, mw)
}

func (r *registrar) Handle(method, path string, h HandlerFunc, mw ...Middleware) *Route {
	return r.handle(strings.ToUpper(method), path, h, mw)
}

func (r *registrar) handle(method, path string, h HandlerFunc, mw []Middleware) *Route {
	r.app.ensureSetup(method + " " + path)
	if h == nil {
		panic(fmt.Sprintf("loom: nil handler for %s %s", method, path))
	}

	pattern := joinPattern(r.prefix, path)
	segments, err := parsePattern(pattern)
	if err != nil {
		panic(fmt.Sprintf("loom: invalid route pattern %q: %v", pattern, err))
	}

	middleware := slices.Clone(r.mw)
	middleware = append(middleware, mw...)

	route := &Route{
		Handler:    h,
		Pattern:    pattern,
		Methods:    []string{method},
		app:        r.app,
		segments:   segments,
		middleware: middleware,
	}
	r.app.pendingRoutes = append(r.app.pendingRoutes, route)
	return route
}

func (r *registrar) Route(prefix string, fn func(Router)) {
	fn(&registrar{
		app:    r.app,
		prefix: joinPattern(r.prefix, prefix),
		mw:     slices.Clone(r.mw),
	})
}

func (r *registrar) Group(fn func(Router)) {
	fn(&registrar{
		app:    r.app,
		prefix: r.prefix,
		mw:     slices.Clone(r.mw),
	})
}

func (r *registrar) Use(mw ...Middleware) {
	r.mw = append(r.mw, mw...)
}

func (r *registrar) Mount(prefix string, h http.Handler) {
	full := joinPattern(r.prefix, prefix)
	stripped := http.StripPrefix(strings.TrimSuffix(full, "/"), h)
	passthrough := func(c Context) (any, error) {
		stripped.ServeHTTP(c.Response(), c.HTTPRequest())
		return nil, nil
	}

	for _, method := range mountMethods {
		r.handle(method, prefix, passthrough, nil)
		r.handle(method, joinPattern(prefix, "/{path:path}"), passthrough, nil)
	}
}

func (r *registrar) Static(prefix string, fsys fs.FS, subDir string) {
	sub, err := fs.Sub(fsys, subDir)
	if err != nil {
		panic(fmt.Sprintf("loom: static subdir %q: %v", subDir, err))
	}
	fileServer := http.FileServerFS(sub)

	r.Mount(prefix, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// Block directory listings. The bare prefix arrives here with an
		// empty path after stripping.
		if req.URL.Path == "" || strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(w, req)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		fileServer.ServeHTTP(w, req)
	}))
}

// joinPattern glues a group prefix and a route path into one pattern.
// Both are expected to start with "/"; the result never carries a
// trailing slash except for the bare root.
func joinPattern(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		if path == "" {
			return "/"
		}
		return path
	}
	if path == "" || path == "/" {
		return prefix
	}
	return strings.TrimSuffix(prefix, "/") + path
}

// App registration surface: the app is itself a Router rooted at "/",
// plus handler bundles in the style of feature modules:
//
//	app.Register(handlers.NewAuth(repo), handlers.NewPages(repo))

func (app *App) root() *registrar {
	return &registrar{app: app}
}

func (app *App) GET(path string, h HandlerFunc, mw ...Middleware) *Route {
	return app.root().GET(path, h, mw...)
}

func (app *App) POST(path string, h HandlerFunc, mw ...Middleware) *Route {
	return app.root().POST(path, h, mw...)
}

func (app *App) PUT(path string, h HandlerFunc, mw ...Middleware) *Route {
	return app.root().PUT(path, h, mw...)
}

func (app *App) PATCH(path string, h HandlerFunc, mw ...Middleware) *Route {
	return app.root().PATCH(path, h, mw...)
}

func (app *App) DELETE(path string, h HandlerFunc, mw ...Middleware) *Route {
	return app.root().DELETE(path, h, mw...)
}

func (app *App) HEAD(path string, h HandlerFunc, mw ...Middleware) *Route {
	return app.root().HEAD(path, h, mw...)
}

func (app *App) OPTIONS(path string, h HandlerFunc, mw ...Middleware) *Route {
	return app.root().OPTIONS(path, h, mw...)
}

func (app *App) Handle(method, path string, h HandlerFunc, mw ...Middleware) *Route {
	return app.root().Handle(method, path, h, mw...)
}

func (app *App) Route(prefix string, fn func(Router)) {
	app.root().Route(prefix, fn)
}

func (app *App) Group(fn func(Router)) {
	app.root().Group(fn)
}

func (app *App) Mount(prefix string, h http.Handler) {
	app.root().Mount(prefix, h)
}

func (app *App) Static(prefix string, fsys fs.FS, subDir string) {
	app.root().Static(prefix, fsys, subDir)
}

// Use appends app-level middleware. Unlike group middleware, app
// middleware wraps route dispatch itself, so it runs for every request
// including those that end in 404 or 405.
func (app *App) Use(mw ...Middleware) {
	app.ensureSetup("Use")
	app.pendingMW = append(app.pendingMW, mw...)
}

// Register wires handler bundles into the app's route table.
func (app *App) Register(handlers ...Handler) {
	app.ensureSetup("Register")
	r := app.root()
	for _, h := range handlers {
		h.Routes(r)
	}
}

// Filter registers a named template filter, handed to the engine at
// freeze time if it supports filter registration.
func (app *App) Filter(name string, fn any) {
	app.ensureSetup("Filter")
	app.pendingFilters = append(app.pendingFilters, namedValue{name: name, value: fn})
}

// Global registers a value visible to every template, handed to the
// engine at freeze time if it supports globals.
func (app *App) Global(name string, value any) {
	app.ensureSetup("Global")
	app.pendingGlobals = append(app.pendingGlobals, namedValue{name: name, value: value})
}

type namedValue struct {
	value any
	name  string
}
