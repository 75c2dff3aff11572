package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dmitrymomot/loom/pkg/binder"
	"github.com/dmitrymomot/loom/pkg/hostrouter"
	"github.com/dmitrymomot/loom/pkg/htmx"
	"github.com/dmitrymomot/loom/pkg/sanitizer"
	"github.com/dmitrymomot/loom/pkg/session"
	"github.com/dmitrymomot/loom/pkg/storage"
	"github.com/dmitrymomot/loom/pkg/validator"
)

// ValidationErrors is a collection of validation errors.
type ValidationErrors = validator.ValidationErrors

// LanguageKey is the context key under which the language middleware
// stores the resolved language tag.
type LanguageKey struct{}

// Context provides request access and per-request services to handlers.
// It also implements context.Context by delegating to the underlying
// request context.
//
// Handlers do not write through the Context; they return a value and
// the framework turns it into a response. SetHeader and the cookie
// methods stage outgoing state that is merged into whatever response
// the handler returns, which is what makes them work for streaming
// responses too.
type Context interface {
	context.Context

	// Request returns an immutable view of the incoming request,
	// including decoded path parameters.
	Request() *Request

	// HTTPRequest returns the underlying *http.Request for code that
	// needs the raw value (reading the body, standard middleware).
	HTTPRequest() *http.Request

	// Response returns the response writer for low-level integrations.
	// Writing to it directly bypasses negotiation; the framework then
	// leaves the response alone.
	Response() http.ResponseWriter

	// ResponseWriter returns the framework's response writer wrapper.
	ResponseWriter() *ResponseWriter

	// Context exposes the raw request context.
	Context() context.Context

	// Route returns the matched route, or nil when no route matched
	// (error handlers running for 404/405 see nil).
	Route() *Route

	// Param returns the decoded path parameter by name: string for
	// plain and path parameters, int for int, float64 for float.
	// Returns nil if the parameter doesn't exist.
	Param(name string) any

	// ParamString returns the path parameter formatted as a string,
	// regardless of its declared type.
	ParamString(name string) string

	// Query returns the raw query parameter, empty when absent.
	Query(name string) string

	// QueryDefault returns the query parameter, falling back to
	// defaultValue when the parameter is missing or empty.
	QueryDefault(name, defaultValue string) string

	// Form returns a field from the parsed request body.
	Form(name string) string

	// FormFile opens the first uploaded file under the field name.
	FormFile(name string) (multipart.File, *multipart.FileHeader, error)

	// URL builds the path for a named route from parameter values.
	URL(name string, params map[string]string) (string, error)

	// Domain returns the request host, lowercased and without the port.
	Domain() string

	// Subdomain extracts the subdomain using the base domain configured
	// via WithBaseDomain. Empty if not configured or no match.
	Subdomain() string

	// Language returns the language resolved by the language middleware,
	// or empty when the middleware is not installed.
	Language() string

	// Header reads a request header.
	Header(name string) string

	// SetHeader stages a response header. Staged headers are written
	// whatever shape the response takes, including streams.
	SetHeader(name, value string)

	// IsHTMX reports whether the request originated from htmx.
	IsHTMX() bool

	// IsBoosted reports whether the request came from an hx-boost
	// navigation, which expects a full page rather than a fragment.
	IsBoosted() bool

	// Error creates an HTTPError without writing anything. Return it
	// from the handler to trigger error dispatch.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Bind decodes the form body into v, sanitizes it, and validates.
	// Validation failures come back as ValidationErrors; the error
	// return is reserved for malformed input and system failures.
	Bind(v any) (ValidationErrors, error)

	// BindQuery is Bind for the query string.
	BindQuery(v any) (ValidationErrors, error)

	// BindJSON is Bind for a JSON body.
	BindJSON(v any) (ValidationErrors, error)

	// Written reports whether a response has already been written.
	Written() bool

	// Logger returns the request logger.
	Logger() *slog.Logger

	// LogDebug logs through the request logger at debug level.
	LogDebug(msg string, attrs ...any)

	// LogInfo logs through the request logger at info level.
	LogInfo(msg string, attrs ...any)

	// LogWarn logs through the request logger at warn level.
	LogWarn(msg string, attrs ...any)

	// LogError logs through the request logger at error level.
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context, visible to later
	// middleware, the handler, and error handlers.
	Set(key any, value any)

	// Get retrieves a value from the request context, nil if absent.
	Get(key any) any

	// Cookie reads a plain cookie.
	Cookie(name string) (string, error)

	// SetCookie stages a plain cookie.
	SetCookie(name, value string, maxAge int)

	// DeleteCookie stages cookie removal.
	DeleteCookie(name string)

	// CookieSigned reads and verifies a signed cookie. The signed and
	// encrypted variants need a secret from WithCookieOptions and
	// report cookie.ErrNoSecret without one.
	CookieSigned(name string) (string, error)

	// SetCookieSigned stages a cookie with a tamper-evident signature.
	SetCookieSigned(name, value string, maxAge int) error

	// CookieEncrypted reads and decrypts an encrypted cookie.
	CookieEncrypted(name string) (string, error)

	// SetCookieEncrypted stages a cookie opaque to the client.
	SetCookieEncrypted(name, value string, maxAge int) error

	// Flash pops a flash message into dest: read once, then gone.
	Flash(key string, dest any) error

	// SetFlash stages a flash message for the next request.
	SetFlash(key string, value any) error

	// Session returns the request's session, loading it on first use.
	// Reports session.ErrNotConfigured when WithSession was not given.
	Session() (*session.Session, error)

	// InitSession starts a fresh anonymous session and stages its
	// cookie.
	InitSession() error

	// AuthenticateSession associates a user with the session and
	// rotates the token.
	AuthenticateSession(userID string) error

	// UserID returns the authenticated user's ID from the session,
	// empty when anonymous.
	UserID() string

	// IsAuthenticated reports whether a user is associated with the
	// session.
	IsAuthenticated() bool

	// IsCurrentUser reports whether the authenticated user's ID matches
	// the given id.
	IsCurrentUser(id string) bool

	// SessionValue reads one session value, nil when unset.
	SessionValue(key string) (any, error)

	// SetSessionValue writes one session value. Dirty sessions persist
	// automatically when the response commits.
	SetSessionValue(key string, val any) error

	// DeleteSessionValue drops one session value.
	DeleteSessionValue(key string) error

	// DestroySession deletes the stored session and expires its cookie.
	DestroySession() error

	// Storage returns the object store wired with WithStorage, or
	// storage.ErrNotConfigured without one.
	Storage() (storage.Storage, error)

	// Upload streams r into the object store.
	Upload(r io.Reader, size int64, opts ...storage.Option) (*storage.Object, error)

	// UploadFile sends an uploaded multipart file to the object store.
	UploadFile(fh *multipart.FileHeader, opts ...storage.Option) (*storage.Object, error)

	// Download opens a stored object for reading; the caller closes it.
	Download(key string) (io.ReadCloser, error)

	// DeleteFile removes one stored object.
	DeleteFile(key string) error

	// FileURL returns an address that serves the object, signed when
	// the backend requires it.
	FileURL(key string, opts ...storage.URLOption) (string, error)
}

// requestContext implements Context.
type requestContext struct {
	app            *App
	request        *http.Request
	responseWriter *ResponseWriter
	req            *Request
	match          *RouteMatch
	allowed        []string // populated instead of match on 405
	session        *session.Session

	sessionLoaded         bool
	sessionHookRegistered bool
}

func newContext(w http.ResponseWriter, r *http.Request, app *App, match *RouteMatch) *requestContext {
	return &requestContext{
		app:            app,
		request:        r,
		responseWriter: NewResponseWriter(w, htmx.IsHTMX(r)),
		match:          match,
	}
}

func (c *requestContext) Request() *Request {
	if c.req == nil {
		req := newRequest(c.request)
		if c.match != nil {
			req = req.withParams(c.match.Params)
		}
		c.req = req
	}
	return c.req
}

func (c *requestContext) HTTPRequest() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.responseWriter
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.responseWriter
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Route() *Route {
	if c.match == nil {
		return nil
	}
	return c.match.Route
}

func (c *requestContext) Param(name string) any {
	if c.match == nil {
		return nil
	}
	return c.match.Params[name]
}

func (c *requestContext) ParamString(name string) string {
	v := c.Param(name)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	if v := c.request.URL.Query().Get(name); v != "" {
		return v
	}
	return defaultValue
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) FormFile(name string) (multipart.File, *multipart.FileHeader, error) {
	return c.request.FormFile(name)
}

func (c *requestContext) URL(name string, params map[string]string) (string, error) {
	return c.app.URL(name, params)
}

func (c *requestContext) Domain() string {
	return hostrouter.GetDomain(c.request)
}

func (c *requestContext) Subdomain() string {
	if c.app.baseDomain == "" {
		return ""
	}
	return hostrouter.GetSubdomain(c.request, c.app.baseDomain)
}

func (c *requestContext) Language() string {
	if lang, ok := c.Get(LanguageKey{}).(string); ok {
		return lang
	}
	return ""
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.responseWriter.Header().Set(name, value)
}

func (c *requestContext) IsHTMX() bool {
	return htmx.IsHTMX(c.request)
}

func (c *requestContext) IsBoosted() bool {
	return htmx.IsBoosted(c.request)
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return statusError(code, message, opts)
}

func (c *requestContext) Bind(v any) (ValidationErrors, error) {
	return c.bindAndValidate(binder.Form(), v, "bind form")
}

func (c *requestContext) BindQuery(v any) (ValidationErrors, error) {
	return c.bindAndValidate(binder.Query(), v, "bind query")
}

func (c *requestContext) BindJSON(v any) (ValidationErrors, error) {
	return c.bindAndValidate(binder.JSON(), v, "bind json")
}

// bindAndValidate decodes with bind, sanitizes, then validates.
// Validation failures are data for the handler to render, not errors.
func (c *requestContext) bindAndValidate(bind func(*http.Request, any) error, v any, label string) (ValidationErrors, error) {
	if err := bind(c.request, v); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if err := sanitizer.SanitizeStruct(v); err != nil {
		return nil, fmt.Errorf("sanitize: %w", err)
	}
	err := validator.ValidateStruct(v)
	switch {
	case err == nil:
		return nil, nil
	case validator.IsValidationError(err):
		return validator.ExtractValidationErrors(err), nil
	default:
		return nil, fmt.Errorf("validate: %w", err)
	}
}

func (c *requestContext) Written() bool {
	return c.responseWriter.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.app.log()
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.app.log().DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.app.log().InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.app.log().WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.app.log().ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
	c.req = nil // invalidate the immutable view so Context() reflects the value
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Cookie(name string) (string, error) {
	return c.app.cookieManager.Get(c.request, name)
}

func (c *requestContext) SetCookie(name, value string, maxAge int) {
	c.app.cookieManager.Set(c.responseWriter, name, value, maxAge)
}

func (c *requestContext) DeleteCookie(name string) {
	c.app.cookieManager.Delete(c.responseWriter, name)
}

func (c *requestContext) CookieSigned(name string) (string, error) {
	return c.app.cookieManager.GetSigned(c.request, name)
}

func (c *requestContext) SetCookieSigned(name, value string, maxAge int) error {
	return c.app.cookieManager.SetSigned(c.responseWriter, name, value, maxAge)
}

func (c *requestContext) CookieEncrypted(name string) (string, error) {
	return c.app.cookieManager.GetEncrypted(c.request, name)
}

func (c *requestContext) SetCookieEncrypted(name, value string, maxAge int) error {
	return c.app.cookieManager.SetEncrypted(c.responseWriter, name, value, maxAge)
}

func (c *requestContext) Flash(key string, dest any) error {
	return c.app.cookieManager.Flash(c.responseWriter, c.request, key, dest)
}

func (c *requestContext) SetFlash(key string, value any) error {
	return c.app.cookieManager.SetFlash(c.responseWriter, key, value)
}

// registerSessionHook arranges for dirty sessions to be persisted just
// before the response commits, whichever path writes it.
func (c *requestContext) registerSessionHook() {
	if c.sessionHookRegistered || c.app.sessionManager == nil {
		return
	}
	c.sessionHookRegistered = true
	c.responseWriter.OnBeforeWrite(func() {
		if c.session != nil && c.session.IsDirty() {
			// Best-effort: a failed save must not break the response.
			if err := c.app.sessionManager.Store().Update(c.Context(), c.session); err != nil {
				c.LogError("failed to save session", slog.Any("error", err))
				return
			}
			c.session.ClearDirty()
		}
	})
}

func (c *requestContext) Session() (*session.Session, error) {
	if c.app.sessionManager == nil {
		return nil, session.ErrNotConfigured
	}
	c.registerSessionHook()

	if !c.sessionLoaded {
		sess, err := c.app.sessionManager.LoadSession(c.Context(), c.request)
		if err != nil {
			return nil, err
		}
		c.session, c.sessionLoaded = sess, true
	}
	return c.session, nil
}

func (c *requestContext) InitSession() error {
	if c.app.sessionManager == nil {
		return session.ErrNotConfigured
	}
	c.registerSessionHook()

	sess, err := c.app.sessionManager.CreateSession(c.Context(), c.request)
	if err != nil {
		return err
	}
	c.session, c.sessionLoaded = sess, true
	c.app.sessionManager.SaveSession(c.responseWriter, sess)
	return nil
}

// liveSession returns the loaded session, session.ErrNotFound when the
// request has none.
func (c *requestContext) liveSession() (*session.Session, error) {
	sess, err := c.Session()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func (c *requestContext) AuthenticateSession(userID string) error {
	if c.app.sessionManager == nil {
		return session.ErrNotConfigured
	}

	sess, err := c.Session()
	if err != nil {
		c.LogWarn("failed to load session", slog.Any("error", err))
	}
	if sess == nil {
		if err := c.InitSession(); err != nil {
			return err
		}
		sess = c.session
	}

	sess.Authenticate(userID)

	// Rotate the token so an attacker-fixated session ID dies at login.
	if err := c.app.sessionManager.RotateToken(c.Context(), sess); err != nil {
		return err
	}

	c.app.sessionManager.SaveSession(c.responseWriter, sess)
	return nil
}

func (c *requestContext) UserID() string {
	sess, err := c.Session()
	if err != nil || sess == nil || sess.UserID == nil {
		return ""
	}
	return *sess.UserID
}

func (c *requestContext) IsAuthenticated() bool {
	return c.UserID() != ""
}

func (c *requestContext) IsCurrentUser(id string) bool {
	uid := c.UserID()
	return uid != "" && uid == id
}

func (c *requestContext) SessionValue(key string) (any, error) {
	sess, err := c.liveSession()
	if err != nil {
		return nil, err
	}
	val, _ := sess.GetValue(key)
	return val, nil
}

func (c *requestContext) SetSessionValue(key string, val any) error {
	sess, err := c.liveSession()
	if err != nil {
		return err
	}
	sess.SetValue(key, val)
	return nil
}

func (c *requestContext) DeleteSessionValue(key string) error {
	sess, err := c.liveSession()
	if err != nil {
		return err
	}
	sess.DeleteValue(key)
	return nil
}

func (c *requestContext) DestroySession() error {
	if c.app.sessionManager == nil {
		return session.ErrNotConfigured
	}

	if c.session != nil {
		if err := c.app.sessionManager.Store().Delete(c.Context(), c.session.ID); err != nil {
			return err
		}
	}

	c.app.sessionManager.DeleteSession(c.responseWriter)

	c.session = nil
	c.sessionLoaded = true
	return nil
}

func (c *requestContext) Storage() (storage.Storage, error) {
	if c.app.storage == nil {
		return nil, storage.ErrNotConfigured
	}
	return c.app.storage, nil
}

func (c *requestContext) Upload(r io.Reader, size int64, opts ...storage.Option) (*storage.Object, error) {
	s, err := c.Storage()
	if err != nil {
		return nil, err
	}
	return s.Put(c.Context(), r, size, opts...)
}

func (c *requestContext) UploadFile(fh *multipart.FileHeader, opts ...storage.Option) (*storage.Object, error) {
	s, err := c.Storage()
	if err != nil {
		return nil, err
	}
	return storage.PutFile(c.Context(), s, fh, opts...)
}

func (c *requestContext) Download(key string) (io.ReadCloser, error) {
	s, err := c.Storage()
	if err != nil {
		return nil, err
	}
	return s.Get(c.Context(), key)
}

func (c *requestContext) DeleteFile(key string) error {
	s, err := c.Storage()
	if err != nil {
		return err
	}
	return s.Delete(c.Context(), key)
}

func (c *requestContext) FileURL(key string, opts ...storage.URLOption) (string, error) {
	s, err := c.Storage()
	if err != nil {
		return "", err
	}
	return s.URL(c.Context(), key, opts...)
}
