package loom

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/loom/internal"
	"github.com/dmitrymomot/loom/pkg/cookie"
	"github.com/dmitrymomot/loom/pkg/health"
	"github.com/dmitrymomot/loom/pkg/logger"
	"github.com/dmitrymomot/loom/pkg/session"
	"github.com/dmitrymomot/loom/pkg/storage"
	"github.com/dmitrymomot/loom/pkg/validator"
)

// Core types, re-exported from internal.
type (
	// App orchestrates routing, negotiation, and the serving lifecycle.
	// Configure it with options, register routes, then call Run; the
	// app freezes before the listener opens and is immutable afterwards.
	App = internal.App

	// Router is the route registration interface handed to handlers.
	Router = internal.Router

	// Route is a single registered route. Name routes for URL reversal
	// with Named.
	Route = internal.Route

	// Context carries the request, response staging, and per-request
	// services into handlers.
	Context = internal.Context

	// Request is the immutable view of the incoming request.
	Request = internal.Request

	// Handler is a bundle of routes, typically one per feature area.
	Handler = internal.Handler

	// HandlerFunc handles one request and returns a value for content
	// negotiation, or an error for error dispatch.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc. Middleware sees the handler's
	// return value and error on the way out and may replace either.
	Middleware = internal.Middleware

	// ErrorHandler turns an error into a replacement value, or returns
	// an error to fall through to the next handler in dispatch order.
	ErrorHandler = internal.ErrorHandler

	// Responder is a ready-to-send response. Handlers normally return
	// directives instead; return a Responder to bypass negotiation.
	Responder = internal.Responder

	// Response is an immutable buffered response.
	Response = internal.Response

	// StreamingResponse sends chunks as they are produced.
	StreamingResponse = internal.StreamingResponse

	// SSEResponse holds an event stream for Server-Sent Events delivery.
	SSEResponse = internal.SSEResponse

	// ResponseWriter is the framework's http.ResponseWriter wrapper.
	ResponseWriter = internal.ResponseWriter

	// Option configures an App at construction time.
	Option = internal.Option

	// RunOption configures the HTTP server for Run.
	RunOption = internal.RunOption

	// HealthOption configures the built-in health endpoints.
	HealthOption = internal.HealthOption

	// HTTPError is an error with an HTTP status code and optional
	// problem details.
	HTTPError = internal.HTTPError

	// HTTPErrorOption adds detail to an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// PanicError wraps a recovered panic value.
	PanicError = internal.PanicError

	// NegotiationError reports a handler return value the framework
	// does not know how to send.
	NegotiationError = internal.NegotiationError

	// ValidationErrors is the collection returned by Bind when input
	// fails validation.
	ValidationErrors = internal.ValidationErrors

	// ValidationError is a single field validation failure.
	ValidationError = validator.ValidationError

	// M is shorthand for template and JSON data maps.
	M = internal.M

	// TemplateEngine renders pages, blocks, and streams. Wire one in
	// with WithTemplates; pkg/htmlview ships the html/template-backed
	// implementation.
	TemplateEngine = internal.TemplateEngine

	// FilterRegistrar is implemented by engines that accept template
	// filters registered through App.Filter.
	FilterRegistrar = internal.FilterRegistrar

	// GlobalRegistrar is implemented by engines that accept template
	// globals registered through App.Global.
	GlobalRegistrar = internal.GlobalRegistrar

	// Component renders itself to a writer. templ components satisfy
	// this interface, so handlers can return them directly.
	Component = internal.Component

	// EventStream is a lazily produced sequence of Server-Sent Events.
	EventStream = internal.EventStream

	// EventStreamOption configures an EventStream.
	EventStreamOption = internal.EventStreamOption

	// EventErrorMode controls how per-event render failures reach the
	// client.
	EventErrorMode = internal.EventErrorMode

	// OOBFragment is an out-of-band fragment attached to a Multi
	// response.
	OOBFragment = internal.OOBFragment

	// Extractor pulls a string value from a request using an ordered
	// list of sources. Used with WithLogger to enrich log records.
	Extractor = internal.Extractor

	// ExtractorSource is a single place an Extractor looks.
	ExtractorSource = internal.ExtractorSource

	// ContextExtractor derives log attributes from a request context.
	ContextExtractor = logger.ContextExtractor

	// HealthCheckFunc probes one dependency for the readiness endpoint.
	HealthCheckFunc = health.CheckFunc

	// CookieOption configures the cookie manager.
	CookieOption = cookie.Option

	// SessionOption configures the session manager.
	SessionOption = internal.SessionOption

	// Session is the per-visitor session record.
	Session = session.Session

	// SessionStore persists sessions. Implementations live in
	// pkg/session/memory, pkg/session/postgres, and pkg/session/redis.
	SessionStore = session.Store

	// Storage is the file storage client configured via WithStorage.
	Storage = storage.Storage
)

// New creates an App with the given options. The app starts in setup
// mode: register routes, middleware, filters, and globals, then call
// Run (or Freeze for tests) to compile the route table and freeze the
// configuration.
//
// Example:
//
//	app := loom.New(
//	    loom.WithTemplates(views),
//	    loom.WithSession(store),
//	)
//	app.Register(handlers.NewAuth(repo), handlers.NewPages(repo))
//	err := app.Run(":8080")
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// Run starts a multi-domain HTTP server and blocks until shutdown.
// Compose apps under domain patterns, with an optional fallback for
// unmatched hosts:
//
//	err := loom.Run(
//	    loom.Domain("api.acme.com", api),
//	    loom.Domain("*.acme.com", tenants),
//	    loom.Fallback(site),
//	    loom.Address(":8080"),
//	)
//
// For a single app, prefer app.Run(addr, opts...).
func Run(opts ...RunOption) error {
	return internal.Run(opts...)
}

// Directives. Handlers return these to tell the framework what to
// send; negotiation maps each onto a concrete response protocol.

// Page renders a full page template.
func Page(name string, data any) *internal.PageDirective {
	return internal.Page(name, data)
}

// Fragment renders one named block from a template, for htmx partial
// updates.
func Fragment(name, block string, data any) *internal.FragmentDirective {
	return internal.Fragment(name, block, data)
}

// Auto renders the block for htmx requests and the full page for
// direct navigation, so one handler serves both.
func Auto(name, block string, data any) *internal.AutoDirective {
	return internal.Auto(name, block, data)
}

// OOB builds an out-of-band fragment targeting an element by id, for
// use with Multi.
func OOB(template, block, targetID string, data any) internal.OOBFragment {
	return internal.OOB(template, block, targetID, data)
}

// Multi renders a primary fragment plus out-of-band fragments in one
// response, so a single action can update several page regions.
func Multi(primary *internal.FragmentDirective, oob ...internal.OOBFragment) *internal.MultiDirective {
	return internal.Multi(primary, oob...)
}

// Invalid re-renders a form block with validation errors and responds
// 422 so htmx swaps the errors in without a redirect.
func Invalid(name, block string, data any) *internal.InvalidDirective {
	return internal.Invalid(name, block, data)
}

// Stream sends the template as chunks while it renders, letting the
// browser paint above-the-fold content before slow sections finish.
func Stream(name string, data any) *internal.StreamDirective {
	return internal.Stream(name, data)
}

// Events opens a Server-Sent Events connection fed by the source
// sequence. The connection closes when the source ends, the client
// disconnects, or the server shuts down.
//
//	return loom.Events(func(yield func(any) bool) {
//	    for msg := range broker.Subscribe(c, "notifications") {
//	        if !yield(loom.Fragment("partials/notice", "notice", msg)) {
//	            return
//	        }
//	    }
//	}), nil
func Events(source iter.Seq[any], opts ...EventStreamOption) *EventStream {
	return internal.Events(source, opts...)
}

// WithHeartbeat overrides the keep-alive comment interval for an event
// stream. Default is 15 seconds.
func WithHeartbeat(d time.Duration) EventStreamOption {
	return internal.WithHeartbeat(d)
}

// WithEventErrorMode overrides how a single event's render failure is
// surfaced to the client.
func WithEventErrorMode(mode EventErrorMode) EventStreamOption {
	return internal.WithEventErrorMode(mode)
}

// Event stream error modes.
const (
	// EventErrorAuto emits detailed error events in debug mode and
	// silently skips failed events in production.
	EventErrorAuto = internal.EventErrorAuto
	// EventErrorDetailed emits a named "error" event with diagnostic
	// detail and continues the stream.
	EventErrorDetailed = internal.EventErrorDetailed
	// EventErrorGeneric emits a named "error" event with no detail.
	EventErrorGeneric = internal.EventErrorGeneric
	// EventErrorSilent skips the failed event entirely.
	EventErrorSilent = internal.EventErrorSilent
)

// Redirect sends the client to url. For htmx requests this becomes an
// HX-Redirect header on a 200 response; for everyone else a 303.
func Redirect(url string) *internal.RedirectDirective {
	return internal.Redirect(url)
}

// RedirectWithStatus sends a redirect with an explicit status code for
// non-htmx clients.
func RedirectWithStatus(url string, status int) *internal.RedirectDirective {
	return internal.RedirectWithStatus(url, status)
}

// WithStatus wraps any negotiable value with an explicit status code.
func WithStatus(value any, status int) *internal.StatusDirective {
	return internal.WithStatus(value, status)
}

// WithHeaders wraps any negotiable value with a status code and extra
// response headers.
func WithHeaders(value any, status int, headers map[string]string) *internal.HeadersDirective {
	return internal.WithHeaders(value, status, headers)
}

// NewResponse builds a buffered response for custom Responders.
func NewResponse(status int, contentType string, body []byte) *Response {
	return internal.NewResponse(status, contentType, body)
}

// NoContent returns an empty 204 response.
func NoContent() *Response {
	return internal.NoContent()
}

// NewStreamingResponse builds a chunked response from a sequence of
// chunks. Negotiation produces these from Stream directives; build one
// directly for custom streaming sources.
func NewStreamingResponse(chunks iter.Seq2[string, error]) *StreamingResponse {
	return internal.NewStreamingResponse(chunks)
}

// Raw returns a Component that writes the given HTML verbatim, without
// escaping. Only use it with trusted markup.
func Raw(html string) Component {
	return templ.Raw(html)
}

// ComponentFunc adapts a render function into a Component.
func ComponentFunc(fn func(ctx context.Context, w io.Writer) error) Component {
	return templ.ComponentFunc(fn)
}

// Error constructors. Return these from handlers to trigger error
// dispatch with the right status code.

// NewHTTPError creates an HTTPError with the given status and message.
func NewHTTPError(code int, message string) *HTTPError {
	return internal.NewHTTPError(code, message)
}

// ErrBadRequest creates a 400 error.
func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

// ErrUnauthorized creates a 401 error.
func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnauthorized(message, opts...)
}

// ErrForbidden creates a 403 error.
func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

// ErrNotFound creates a 404 error.
func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

// ErrMethodNotAllowed creates a 405 error carrying the allowed methods.
func ErrMethodNotAllowed(message string, allow []string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrMethodNotAllowed(message, allow, opts...)
}

// ErrConflict creates a 409 error.
func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrConflict(message, opts...)
}

// ErrUnprocessable creates a 422 error.
func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnprocessable(message, opts...)
}

// ErrInternal creates a 500 error.
func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

// ErrServiceUnavailable creates a 503 error.
func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrServiceUnavailable(message, opts...)
}

// HTTPError options.

// WithTitle sets the error's human-facing title.
func WithTitle(title string) HTTPErrorOption {
	return internal.WithTitle(title)
}

// WithDetail sets the error's detail text.
func WithDetail(detail string) HTTPErrorOption {
	return internal.WithDetail(detail)
}

// WithErrorCode sets a machine-readable error code.
func WithErrorCode(code string) HTTPErrorOption {
	return internal.WithErrorCode(code)
}

// WithRequestID attaches a request ID to the error.
func WithRequestID(id string) HTTPErrorOption {
	return internal.WithRequestID(id)
}

// WithError wraps an underlying cause.
func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

// IsHTTPError reports whether err is or wraps an *HTTPError.
func IsHTTPError(err error) bool {
	return internal.IsHTTPError(err)
}

// AsHTTPError extracts an *HTTPError from err, nil if there is none.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// IsPanicError reports whether err is or wraps a *PanicError.
func IsPanicError(err error) bool {
	return internal.IsPanicError(err)
}

// AsPanicError extracts a *PanicError from err, nil if there is none.
func AsPanicError(err error) *PanicError {
	return internal.AsPanicError(err)
}

// Framework sentinels.
var (
	// ErrNoTemplateEngine is returned when a template directive is used
	// but no engine was configured via WithTemplates.
	ErrNoTemplateEngine = internal.ErrNoTemplateEngine

	// ErrStreamingUnsupported is returned when the response writer
	// cannot flush, which streams and SSE require.
	ErrStreamingUnsupported = internal.ErrStreamingUnsupported
)

// App options.

// WithTemplates wires the template engine used by Page, Fragment, and
// the other rendering directives.
func WithTemplates(engine TemplateEngine) Option {
	return internal.WithTemplates(engine)
}

// WithDebug toggles debug mode: verbose error pages, detailed SSE
// error events, and debug-level request logs. Never enable it in
// production.
func WithDebug(debug bool) Option {
	return internal.WithDebug(debug)
}

// WithValidationTarget overrides the CSS selector htmx uses to swap in
// validation error fragments. Default is "this".
func WithValidationTarget(selector string) Option {
	return internal.WithValidationTarget(selector)
}

// WithBaseDomain sets the base domain used by Context.Subdomain.
func WithBaseDomain(domain string) Option {
	return internal.WithBaseDomain(domain)
}

// WithMiddleware appends app-level middleware. App middleware wraps
// route dispatch itself, so it also runs for requests that end in 404
// or 405.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handler bundles, same as calling Register.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithErrorHandler installs the default error handler, equivalent to
// OnErrorDefault.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithHealthChecks enables the liveness and readiness endpoints.
//
// Example:
//
//	loom.WithHealthChecks(
//	    loom.WithReadinessCheck("postgres", db.Healthcheck(pool)),
//	    loom.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLivenessPath overrides the liveness endpoint path.
// Default is "/health/live".
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath overrides the readiness endpoint path.
// Default is "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named dependency probe to the readiness
// endpoint.
func WithReadinessCheck(name string, fn HealthCheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// WithLogger configures structured request logging with the given
// component name and optional context extractors.
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom slog logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithCookieOptions configures the cookie manager used by the Context
// cookie helpers and the session cookie.
func WithCookieOptions(opts ...CookieOption) Option {
	return internal.WithCookieOptions(opts...)
}

// WithSession enables sessions backed by the given store.
//
// Example:
//
//	store := memory.New()
//	app := loom.New(
//	    loom.WithSession(store, loom.WithSessionMaxAge(86400*30)),
//	)
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// WithStorage wires a file storage client, available to handlers via
// Context.Storage.
func WithStorage(s Storage) Option {
	return internal.WithStorage(s)
}

// Run options.

// Address sets the listen address for loom.Run. Default is ":8080".
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Logger sets the server logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout bounds graceful shutdown. Default is 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs fn after the listener opens. A failing hook aborts
// startup.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook runs fn during graceful shutdown, after in-flight
// requests drain.
//
//	loom.ShutdownHook(func(ctx context.Context) error {
//	    pool.Close()
//	    return nil
//	})
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// Domain routes requests matching the host pattern to the given app.
// Patterns are exact ("api.acme.com") or wildcard ("*.acme.com").
func Domain(pattern string, app *App) RunOption {
	return internal.Domain(pattern, app)
}

// Fallback routes requests that match no domain pattern to the given
// app.
func Fallback(app *App) RunOption {
	return internal.Fallback(app)
}

// WithContext sets the base context for the server. Server shutdown
// begins when the context is canceled, in addition to SIGINT/SIGTERM.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Typed helpers.

// ContextValue retrieves a typed value stored on the context with Set.
// Returns the zero value if the key is absent or the type differs.
//
//	user := loom.ContextValue[*User](c, userKey{})
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Param returns a typed path parameter.
//
//	id := loom.Param[int64](c, "id")
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Param[T](c, name)
}

// Query returns a typed query parameter, zero value if absent or
// malformed.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns a typed query parameter or a default.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	return internal.QueryDefault[T](c, name, defaultValue)
}

// SessionValue retrieves a typed session value.
//
//	theme, err := loom.SessionValue[string](sess, "theme")
func SessionValue[T any](sess *Session, key string) (T, error) {
	return session.Value[T](sess, key)
}

// SessionValueOr retrieves a typed session value, falling back to a
// default when the key is absent or the type differs.
func SessionValueOr[T any](sess *Session, key string, defaultVal T) T {
	return session.ValueOr[T](sess, key, defaultVal)
}

// Log extractors for WithLogger.

// NewExtractor builds an extractor that tries sources in order and
// returns the first hit.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return internal.NewExtractor(sources...)
}

// FromHeader extracts a value from a request header.
func FromHeader(name string) ExtractorSource {
	return internal.FromHeader(name)
}

// FromQuery extracts a value from a query parameter.
func FromQuery(name string) ExtractorSource {
	return internal.FromQuery(name)
}

// FromCookie extracts a value from a plain cookie.
func FromCookie(name string) ExtractorSource {
	return internal.FromCookie(name)
}

// FromCookieSigned extracts a value from a signed cookie.
func FromCookieSigned(name string) ExtractorSource {
	return internal.FromCookieSigned(name)
}

// FromCookieEncrypted extracts a value from an encrypted cookie.
func FromCookieEncrypted(name string) ExtractorSource {
	return internal.FromCookieEncrypted(name)
}

// FromParam extracts a value from a path parameter.
func FromParam(name string) ExtractorSource {
	return internal.FromParam(name)
}

// FromForm extracts a value from a form field.
func FromForm(name string) ExtractorSource {
	return internal.FromForm(name)
}

// FromSession extracts a value from the session.
func FromSession(key string) ExtractorSource {
	return internal.FromSession(key)
}

// FromBearerToken extracts the bearer token from the Authorization
// header.
func FromBearerToken() ExtractorSource {
	return internal.FromBearerToken()
}

// Cookie options for WithCookieOptions.

// WithCookieSecret sets the secret for signed and encrypted cookies.
// Must be at least 32 bytes.
func WithCookieSecret(secret string) CookieOption {
	return cookie.WithSecret(secret)
}

// WithCookieDomain sets the cookie domain.
func WithCookieDomain(domain string) CookieOption {
	return cookie.WithDomain(domain)
}

// WithCookiePath sets the cookie path. Default is "/".
func WithCookiePath(path string) CookieOption {
	return cookie.WithPath(path)
}

// WithCookieSecure sets the Secure flag.
func WithCookieSecure(secure bool) CookieOption {
	return cookie.WithSecure(secure)
}

// WithCookieHTTPOnly sets the HttpOnly flag. Default is true.
func WithCookieHTTPOnly(httpOnly bool) CookieOption {
	return cookie.WithHTTPOnly(httpOnly)
}

// WithCookieSameSite sets the SameSite attribute. Default is Lax.
func WithCookieSameSite(ss http.SameSite) CookieOption {
	return cookie.WithSameSite(ss)
}

// Cookie errors for checking return values.
var (
	ErrCookieNotFound  = cookie.ErrNotFound
	ErrCookieNoSecret  = cookie.ErrNoSecret
	ErrCookieBadSecret = cookie.ErrBadSecret
	ErrCookieBadSig    = cookie.ErrBadSig
	ErrCookieDecrypt   = cookie.ErrDecrypt
)

// Session options for WithSession.

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

// WithSessionMaxAge sets the session lifetime in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return internal.WithSessionMaxAge(seconds)
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

// WithSessionPath sets the session cookie path.
func WithSessionPath(path string) SessionOption {
	return internal.WithSessionPath(path)
}

// WithSessionSecure sets the session cookie Secure flag.
func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

// WithSessionHTTPOnly sets the session cookie HttpOnly flag.
func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return internal.WithSessionHTTPOnly(httpOnly)
}

// WithSessionSameSite sets the session cookie SameSite attribute.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// Session errors for checking return values.
var (
	ErrSessionNotConfigured = session.ErrNotConfigured
	ErrSessionNotFound      = session.ErrNotFound
	ErrSessionExpired       = session.ErrExpired
	ErrSessionInvalidToken  = session.ErrInvalidToken
)
