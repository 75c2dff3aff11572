package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/loom/pkg/id"
	"github.com/dmitrymomot/loom/pkg/session"
)

// Session cookie defaults.
const (
	defaultSessionCookieName = "__sid"
	defaultSessionMaxAge     = 86400 * 30 // 30 days
)

// SessionManager owns the session side of a request: it resolves the
// cookie to a stored session on the way in and stages the cookie on
// the way out. Contexts lean on it for Session, AuthenticateSession,
// and Logout.
type SessionManager struct {
	store      session.Store
	cookieName string
	domain     string
	path       string
	maxAge     int
	sameSite   http.SameSite
	secure     bool
	httpOnly   bool
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager wires a store into a manager with Lax, HttpOnly
// cookie defaults.
func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:      store,
		cookieName: defaultSessionCookieName,
		maxAge:     defaultSessionMaxAge,
		path:       "/",
		httpOnly:   true,
		sameSite:   http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// WithSessionCookieName overrides the cookie name, "__sid" by
// default. Empty keeps the default.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name == "" {
			return
		}
		sm.cookieName = name
	}
}

// WithSessionMaxAge sets the session lifetime in seconds, covering
// both the cookie and the stored expiry.
func WithSessionMaxAge(seconds int) SessionOption {
	return func(sm *SessionManager) {
		if seconds <= 0 {
			return
		}
		sm.maxAge = seconds
	}
}

// WithSessionDomain scopes the session cookie to domain and its
// subdomains.
func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) {
		sm.domain = domain
	}
}

// WithSessionPath overrides the cookie path, "/" by default.
func WithSessionPath(path string) SessionOption {
	return func(sm *SessionManager) {
		if path == "" {
			return
		}
		sm.path = path
	}
}

// WithSessionSecure restricts the session cookie to HTTPS.
func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) {
		sm.secure = secure
	}
}

// WithSessionHTTPOnly toggles script access to the session cookie.
// On by default.
func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return func(sm *SessionManager) {
		sm.httpOnly = httpOnly
	}
}

// WithSessionSameSite overrides the SameSite attribute, Lax by
// default.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) {
		sm.sameSite = sameSite
	}
}

// LoadSession resolves the request's session cookie against the store.
// A request without a cookie is simply anonymous: (nil, nil). A cookie
// value this application could not have issued is rejected with
// ErrInvalidToken before the store is consulted; the store reports
// ErrNotFound and ErrExpired for the remaining cases.
func (sm *SessionManager) LoadSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	if !validToken(cookie.Value) {
		return nil, session.ErrInvalidToken
	}
	return sm.store.Get(ctx, cookie.Value)
}

// CreateSession persists a fresh anonymous session described by the
// request: client IP (proxy aware), user agent, and a coarse device
// class for session listings.
func (sm *SessionManager) CreateSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	sess := session.New(id.NewULID(), generateToken(), time.Now().Add(sm.ttl()))
	sess.IP = clientIP(r)
	sess.UserAgent = r.UserAgent()
	sess.Device = deviceClass(r.UserAgent())

	if err := sm.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	// The caller receives a settled session; Create persisted it.
	sess.ClearNew()
	sess.ClearDirty()
	return sess, nil
}

// SaveSession stages the session cookie on the response.
func (sm *SessionManager) SaveSession(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, sm.sessionCookie(sess.Token, sm.maxAge))
}

// DeleteSession stages removal of the session cookie.
func (sm *SessionManager) DeleteSession(w http.ResponseWriter) {
	http.SetCookie(w, sm.sessionCookie("", -1))
}

// RotateToken replaces the session's bearer token, invalidating the
// value any pre-login party may have planted (session fixation). The
// session keeps its ID; on a store failure the old token is restored
// so the caller's state matches what the store still holds.
func (sm *SessionManager) RotateToken(ctx context.Context, sess *session.Session) error {
	oldToken := sess.Token
	sess.Token = generateToken()
	sess.MarkDirty()

	if err := sm.store.Update(ctx, sess); err != nil {
		sess.Token = oldToken
		return err
	}
	return nil
}

// Store returns the underlying session store.
func (sm *SessionManager) Store() session.Store {
	return sm.store
}

func (sm *SessionManager) ttl() time.Duration {
	return time.Duration(sm.maxAge) * time.Second
}

func (sm *SessionManager) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     sm.path,
		Domain:   sm.domain,
		MaxAge:   maxAge,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: sm.sameSite,
	}
}

// generateToken mints the 256-bit bearer token a session cookie
// carries.
func generateToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b) // cannot fail as of Go 1.24
	return base64.URLEncoding.EncodeToString(b)
}

// validToken reports whether token has the shape generateToken
// produces, so corrupt cookies are rejected before a store lookup.
func validToken(token string) bool {
	b, err := base64.URLEncoding.DecodeString(token)
	return err == nil && len(b) == 32
}

// clientIP extracts the client address, preferring the first hop of
// X-Forwarded-For when a proxy set it.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// deviceClass maps a User-Agent to a coarse class for session listings.
// Intentionally crude; "which of my devices is this" does not need a
// full UA parser.
func deviceClass(ua string) string {
	if ua == "" {
		return "unknown"
	}
	lower := strings.ToLower(ua)
	switch {
	case strings.Contains(lower, "bot"),
		strings.Contains(lower, "crawler"),
		strings.Contains(lower, "spider"):
		return "bot"
	case strings.Contains(lower, "ipad"),
		strings.Contains(lower, "tablet"):
		return "tablet"
	case strings.Contains(lower, "mobi"),
		strings.Contains(lower, "android"),
		strings.Contains(lower, "iphone"):
		return "mobile"
	default:
		return "desktop"
	}
}
