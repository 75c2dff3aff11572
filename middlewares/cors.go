package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/loom/internal"
)

// DefaultCORSMaxAge bounds how long browsers may cache a preflight answer.
const DefaultCORSMaxAge = 12 * time.Hour

// DefaultCORSConfig allows any origin for the common methods, without
// credentials.
var DefaultCORSConfig = CORSConfig{
	AllowOrigins: []string{"*"},
	AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
	MaxAge:       DefaultCORSMaxAge,
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins is the static list of allowed origins; "*" admits
	// every origin.
	AllowOrigins []string

	// AllowOriginFunc decides origins dynamically. When set it replaces
	// AllowOrigins entirely, and allowed origins are echoed rather than
	// answered with "*".
	AllowOriginFunc func(origin string) bool

	// AllowMethods is advertised on preflight answers.
	AllowMethods []string

	// AllowHeaders is advertised on preflight answers.
	AllowHeaders []string

	// ExposeHeaders names response headers scripts may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and Authorization headers. It
	// forces the actual origin to be echoed, since browsers reject
	// credentialed responses carrying "*".
	AllowCredentials bool

	// MaxAge bounds preflight caching; zero omits the header.
	MaxAge time.Duration
}

// CORSOption configures CORSConfig.
type CORSOption func(*CORSConfig)

// WithAllowOrigins sets the static list of allowed origins.
func WithAllowOrigins(origins ...string) CORSOption {
	return func(cfg *CORSConfig) {
		cfg.AllowOrigins = origins
	}
}

// WithAllowOriginFunc sets a dynamic origin validator, replacing the
// static list.
func WithAllowOriginFunc(fn func(origin string) bool) CORSOption {
	return func(cfg *CORSConfig) {
		cfg.AllowOriginFunc = fn
	}
}

// WithAllowMethods sets the methods advertised on preflight answers.
func WithAllowMethods(methods ...string) CORSOption {
	return func(cfg *CORSConfig) {
		cfg.AllowMethods = methods
	}
}

// WithAllowHeaders sets the request headers advertised on preflight
// answers.
func WithAllowHeaders(headers ...string) CORSOption {
	return func(cfg *CORSConfig) {
		cfg.AllowHeaders = headers
	}
}

// WithExposeHeaders names response headers scripts may read.
func WithExposeHeaders(headers ...string) CORSOption {
	return func(cfg *CORSConfig) {
		cfg.ExposeHeaders = headers
	}
}

// WithAllowCredentials permits cookies and Authorization headers.
func WithAllowCredentials() CORSOption {
	return func(cfg *CORSConfig) {
		cfg.AllowCredentials = true
	}
}

// WithMaxAge bounds how long browsers may cache a preflight answer.
func WithMaxAge(duration time.Duration) CORSOption {
	return func(cfg *CORSConfig) {
		cfg.MaxAge = duration
	}
}

// cors holds the per-chain state derived from CORSConfig once, at
// construction: the origin check as a closure and the advertised
// header lists pre-joined.
type cors struct {
	allow       func(origin string) bool
	echoOrigin  bool
	credentials bool
	methods     string
	headers     string
	expose      string
	maxAge      string
}

func newCORS(cfg *CORSConfig) *cors {
	wildcard := slices.Contains(cfg.AllowOrigins, "*")

	allow := cfg.AllowOriginFunc
	if allow == nil {
		if wildcard {
			allow = func(string) bool { return true }
		} else {
			origins := cfg.AllowOrigins
			allow = func(origin string) bool { return slices.Contains(origins, origin) }
		}
	}

	s := &cors{
		allow: allow,
		// "*" is only valid for anonymous wildcard setups; credentials,
		// a fixed origin list, or a dynamic validator all require the
		// actual origin to be echoed.
		echoOrigin:  cfg.AllowOriginFunc != nil || cfg.AllowCredentials || !wildcard,
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
	}
	if cfg.MaxAge > 0 {
		s.maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	return s
}

// stage sets the headers shared by simple and preflight responses.
func (s *cors) stage(h http.Header, origin string) {
	h.Add("Vary", "Origin")

	if s.echoOrigin {
		h.Set("Access-Control-Allow-Origin", origin)
	} else {
		h.Set("Access-Control-Allow-Origin", "*")
	}
	if s.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if s.expose != "" {
		h.Set("Access-Control-Expose-Headers", s.expose)
	}
}

// preflight adds the headers only OPTIONS answers carry.
func (s *cors) preflight(h http.Header) {
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")

	h.Set("Access-Control-Allow-Methods", s.methods)
	h.Set("Access-Control-Allow-Headers", s.headers)
	if s.maxAge != "" {
		h.Set("Access-Control-Max-Age", s.maxAge)
	}
}

// CORS returns middleware that handles Cross-Origin Resource Sharing.
// Preflight (OPTIONS) requests from allowed origins are answered here
// and never reach routing; everything else passes through with CORS
// headers staged. Disallowed origins get no CORS headers at all, which
// makes the browser block the response on its side.
func CORS(opts ...CORSOption) internal.Middleware {
	cfg := DefaultCORSConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	state := newCORS(&cfg)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (any, error) {
			origin := c.Header("Origin")

			// Same-origin traffic carries no Origin header.
			if origin == "" || !state.allow(origin) {
				return next(c)
			}

			h := c.Response().Header()
			state.stage(h, origin)

			if c.Request().Method() == http.MethodOptions {
				state.preflight(h)
				return internal.NoContent(), nil
			}

			return next(c)
		}
	}
}
