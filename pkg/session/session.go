package session

import (
	"fmt"
	"time"
)

// Session is one browser's relationship with the application. It
// exists before login: an anonymous visitor gets a session the first
// time a handler asks for one, and logging in binds the same session
// to a user instead of replacing it.
type Session struct {
	// ID names the session in the store and never leaves the server.
	ID string
	// Token is what the cookie carries. It is rotated on login, so
	// it must not be used as a stable reference; use ID for that.
	Token string

	// UserID is nil while the session is anonymous.
	UserID *string

	// Values holds arbitrary per-session data. Stores serialize it
	// as JSON, so what comes back follows JSON's types: numbers are
	// float64, nested maps are map[string]any.
	Values map[string]any

	// Request metadata captured when the session was created, for
	// "your devices" listings.
	IP        string
	UserAgent string
	Device    string

	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time

	dirty bool
	isNew bool
}

// New returns a fresh anonymous session, marked new and dirty so it
// gets persisted.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       make(map[string]any),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		dirty:        true,
		isNew:        true,
	}
}

// Authenticate binds the session to a user and marks it for saving.
// Rotate the token afterwards; the session manager's login path does
// both.
func (s *Session) Authenticate(userID string) {
	s.UserID = &userID
	s.dirty = true
}

// IsAuthenticated reports whether the session belongs to a logged-in
// user.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != nil && *s.UserID != ""
}

// SetValue stores a value and marks the session for saving.
func (s *Session) SetValue(key string, val any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// GetValue returns the value stored under key.
func (s *Session) GetValue(key string) (any, bool) {
	if s.Values == nil {
		return nil, false
	}
	val, ok := s.Values[key]
	return val, ok
}

// DeleteValue removes key. The session is only marked for saving
// when the key actually existed.
func (s *Session) DeleteValue(key string) {
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.dirty = true
	}
}

// IsDirty reports whether the session has changes the store has not
// seen yet.
func (s *Session) IsDirty() bool { return s.dirty }

// ClearDirty resets the dirty flag after a successful save.
func (s *Session) ClearDirty() { s.dirty = false }

// MarkDirty forces a save even when no tracked mutation happened,
// for callers that edit Values in place.
func (s *Session) MarkDirty() { s.dirty = true }

// IsNew reports whether the session has never been persisted.
func (s *Session) IsNew() bool { return s.isNew }

// ClearNew resets the new flag after the first save.
func (s *Session) ClearNew() { s.isNew = false }

// IsExpired reports whether the session's lifetime has passed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Value returns the session value under key as a T. It fails with
// ErrNotFound when the key is absent and ErrWrongType when the
// stored value is not a T. Mind JSON's types for sessions that have
// been through a store: a stored int comes back float64.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}

	val, ok := s.GetValue(key)
	if !ok {
		return zero, ErrNotFound
	}

	typed, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T", ErrWrongType, key, val)
	}
	return typed, nil
}

// ValueOr is Value with a fallback instead of an error.
func ValueOr[T any](s *Session, key string, fallback T) T {
	val, err := Value[T](s, key)
	if err != nil {
		return fallback
	}
	return val
}
