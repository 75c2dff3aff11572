package middlewares

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/dmitrymomot/loom/internal"
)

// Default CSRF configuration.
const (
	DefaultCSRFCookieName = "__csrf"
	DefaultCSRFHeaderName = "X-CSRF-Token"
	DefaultCSRFFieldName  = "_csrf"
	defaultCSRFMaxAge     = 86400 * 7 // 7 days
)

// csrfTokenKey is the context key under which the request's token is
// stored for CSRFToken.
type csrfTokenKey struct{}

// csrfSafeMethods need no verification per RFC 7231: they must not have
// side effects, so a forged request gains the attacker nothing.
var csrfSafeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// CSRFConfig configures the CSRF middleware.
type CSRFConfig struct {
	// Skip exempts a request from verification, for webhook endpoints
	// and other callers that authenticate by other means.
	Skip func(c internal.Context) bool

	// CookieName is the token cookie. Browsers attach it automatically;
	// the double-submit check compares it against the copy the page
	// echoes back.
	CookieName string

	// HeaderName is checked first for the echoed token. htmx picks this
	// up from a meta tag via hx-headers.
	HeaderName string

	// FieldName is the form field fallback for plain HTML forms.
	FieldName string

	// CookieMaxAge bounds the token lifetime in seconds.
	CookieMaxAge int
}

// CSRFOption configures CSRFConfig.
type CSRFOption func(*CSRFConfig)

// WithCSRFCookieName sets the token cookie name.
func WithCSRFCookieName(name string) CSRFOption {
	return func(cfg *CSRFConfig) {
		cfg.CookieName = name
	}
}

// WithCSRFHeaderName sets the request header checked for the token.
func WithCSRFHeaderName(name string) CSRFOption {
	return func(cfg *CSRFConfig) {
		cfg.HeaderName = name
	}
}

// WithCSRFFieldName sets the form field checked for the token.
func WithCSRFFieldName(name string) CSRFOption {
	return func(cfg *CSRFConfig) {
		cfg.FieldName = name
	}
}

// WithCSRFSkip exempts requests matched by the predicate.
func WithCSRFSkip(skip func(c internal.Context) bool) CSRFOption {
	return func(cfg *CSRFConfig) {
		cfg.Skip = skip
	}
}

// WithCSRFCookieMaxAge sets the token cookie lifetime in seconds.
func WithCSRFCookieMaxAge(seconds int) CSRFOption {
	return func(cfg *CSRFConfig) {
		if seconds > 0 {
			cfg.CookieMaxAge = seconds
		}
	}
}

// CSRF returns middleware implementing the cookie double-submit pattern.
//
// Safe methods mint a token cookie when none exists and stash the token
// in the context for CSRFToken. Unsafe methods must echo the cookie's
// value back in the configured header or form field; a mismatch stops
// the request with a 403 before it reaches the handler.
//
// Embed the token in pages with CSRFToken:
//
//	<meta name="csrf-token" content="{{ csrfToken }}">
//	<body hx-headers='{"X-CSRF-Token": "{{ csrfToken }}"}'>
//
// or as a hidden field in plain forms:
//
//	<input type="hidden" name="_csrf" value="{{ csrfToken }}">
func CSRF(opts ...CSRFOption) internal.Middleware {
	cfg := &CSRFConfig{
		CookieName:   DefaultCSRFCookieName,
		HeaderName:   DefaultCSRFHeaderName,
		FieldName:    DefaultCSRFFieldName,
		CookieMaxAge: defaultCSRFMaxAge,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (any, error) {
			if cfg.Skip != nil && cfg.Skip(c) {
				return next(c)
			}

			token, _ := c.Cookie(cfg.CookieName)

			if csrfSafeMethods[c.Request().Method()] {
				if token == "" {
					minted, err := generateCSRFToken()
					if err != nil {
						return nil, internal.ErrInternal("failed to issue csrf token", internal.WithError(err))
					}
					token = minted
					c.SetCookie(cfg.CookieName, token, cfg.CookieMaxAge)
				}
				c.Set(csrfTokenKey{}, token)
				return next(c)
			}

			if token == "" {
				return nil, internal.ErrForbidden("missing csrf cookie",
					internal.WithErrorCode("csrf_missing"))
			}

			echoed := c.Header(cfg.HeaderName)
			if echoed == "" {
				echoed = c.Form(cfg.FieldName)
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(echoed)) != 1 {
				return nil, internal.ErrForbidden("invalid csrf token",
					internal.WithErrorCode("csrf_invalid"))
			}

			c.Set(csrfTokenKey{}, token)
			return next(c)
		}
	}
}

// CSRFToken returns the request's CSRF token for embedding in pages.
// Empty when the CSRF middleware is not installed.
func CSRFToken(c internal.Context) string {
	if v, ok := c.Get(csrfTokenKey{}).(string); ok {
		return v
	}
	return ""
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
