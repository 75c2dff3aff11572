package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"net/http"
)

const minSecretLen = 32

// Manager reads and writes cookies with shared attribute defaults.
// With a secret configured it also signs values (tamper-evident, still
// readable by the client) and encrypts them (opaque to the client).
// Without options, cookies get Path=/, HttpOnly, and SameSite=Lax.
type Manager struct {
	secret []byte
	aead   cipher.AEAD
	err    error

	domain   string
	path     string
	sameSite http.SameSite
	secure   bool
	httpOnly bool
}

// Option configures a Manager.
type Option func(*Manager)

// New creates a Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.secret != nil {
		// The derived key is always 32 bytes, so neither constructor
		// can fail.
		key := sha256.Sum256(m.secret)
		block, _ := aes.NewCipher(key[:])
		m.aead, _ = cipher.NewGCM(block)
	}
	return m
}

// WithSecret enables signed and encrypted cookies. A secret shorter
// than 32 bytes is rejected: the manager still serves plain cookies,
// and operations that need the secret report ErrBadSecret instead of
// silently running unprotected.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		if secret == "" {
			return
		}
		if len(secret) < minSecretLen {
			m.err = ErrBadSecret
			return
		}
		m.secret = []byte(secret)
	}
}

// WithDomain scopes cookies to domain and its subdomains.
func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.domain = domain
	}
}

// WithPath sets the cookie path. Default "/".
func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

// WithSecure restricts cookies to HTTPS transport.
func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithHTTPOnly hides cookies from client-side scripts. Default true.
func WithHTTPOnly(httpOnly bool) Option {
	return func(m *Manager) {
		m.httpOnly = httpOnly
	}
}

// WithSameSite sets the SameSite attribute. Default Lax.
func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) {
		m.sameSite = ss
	}
}

// Get returns a plain cookie value, ErrNotFound when absent.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	switch {
	case errors.Is(err, http.ErrNoCookie):
		return "", ErrNotFound
	case err != nil:
		return "", err
	}
	return c.Value, nil
}

// Set stages a plain cookie. A positive maxAge expires the cookie
// after that many seconds, zero makes it a session cookie, and a
// negative value deletes it.
func (m *Manager) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, m.build(name, value, maxAge))
}

// Delete expires a cookie immediately.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.build(name, "", -1))
}

// Validate reports a misconfigured secret. Running without a secret is
// fine (plain cookies only); running with a rejected one is not, and
// callers that check eagerly can abort startup instead of failing on
// the first signed-cookie access.
func (m *Manager) Validate() error {
	return m.err
}

// sealed gates the signed and encrypted operations on a usable secret.
func (m *Manager) sealed() error {
	if m.err != nil {
		return m.err
	}
	if m.secret == nil {
		return ErrNoSecret
	}
	return nil
}

func (m *Manager) build(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	}
}
