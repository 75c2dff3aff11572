// Package memory provides an in-memory session store for development
// and tests. Sessions live in process memory, so restarts drop every
// session and multiple instances never share state. Use the postgres or
// redis store in production.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/dmitrymomot/loom/pkg/session"
)

// defaultCleanupInterval is how often expired sessions are purged.
const defaultCleanupInterval = time.Minute

var _ session.Store = (*Store)(nil)

// Store keeps sessions in two maps: by token for cookie lookups and by
// ID for management operations. The store owns deep copies, so mutating
// a session after Create or before Update never races with readers.
type Store struct {
	byToken map[string]*session.Session
	byID    map[string]*session.Session
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
}

// Option configures the memory store.
type Option func(*config)

type config struct {
	cleanupInterval time.Duration
}

// WithCleanupInterval sets how often expired sessions are purged.
// Zero disables the background janitor.
// Default: 1 minute
func WithCleanupInterval(d time.Duration) Option {
	return func(c *config) {
		c.cleanupInterval = d
	}
}

// New creates an empty in-memory session store.
func New(opts ...Option) *Store {
	cfg := &config{cleanupInterval: defaultCleanupInterval}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Store{
		byToken: make(map[string]*session.Session),
		byID:    make(map[string]*session.Session),
		done:    make(chan struct{}),
	}

	if cfg.cleanupInterval > 0 {
		go s.janitor(cfg.cleanupInterval)
	}

	return s
}

// Create persists a new session.
func (s *Store) Create(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := clone(sess)
	s.byToken[cp.Token] = cp
	s.byID[cp.ID] = cp
	return nil
}

// Get retrieves a session by its token.
func (s *Store) Get(_ context.Context, token string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.byToken[token]
	s.mu.RUnlock()

	if !ok {
		return nil, session.ErrNotFound
	}
	if sess.IsExpired() {
		// Lazy expiry; the janitor removes the entry later.
		return nil, session.ErrExpired
	}
	return clone(sess), nil
}

// Update saves changes to an existing session, including token
// rotation: the previous token stops resolving as soon as the new one
// is stored.
func (s *Store) Update(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[sess.ID]
	if !ok {
		return session.ErrNotFound
	}

	if current.Token != sess.Token {
		delete(s.byToken, current.Token)
	}

	cp := clone(sess)
	s.byToken[cp.Token] = cp
	s.byID[cp.ID] = cp
	return nil
}

// Delete removes a session by its ID.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byToken, sess.Token)
	delete(s.byID, id)
	return nil
}

// DeleteByUserID removes all sessions for a user.
func (s *Store) DeleteByUserID(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.byID {
		if sess.UserID != nil && *sess.UserID == userID {
			delete(s.byToken, sess.Token)
			delete(s.byID, id)
		}
	}
	return nil
}

// Touch updates the LastActiveAt timestamp without loading the full session.
func (s *Store) Touch(_ context.Context, id string, lastActiveAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return session.ErrNotFound
	}
	sess.LastActiveAt = lastActiveAt
	return nil
}

// Close stops the background janitor. Safe to call multiple times.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.deleteExpired()
		case <-s.done:
			return
		}
	}
}

func (s *Store) deleteExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.byID {
		if sess.IsExpired() {
			delete(s.byToken, sess.Token)
			delete(s.byID, id)
		}
	}
}

// clone deep-copies a session and normalizes it to persisted state so
// copies handed out by Get never look new or dirty.
func clone(sess *session.Session) *session.Session {
	cp := *sess
	cp.Values = maps.Clone(sess.Values)
	if sess.UserID != nil {
		uid := *sess.UserID
		cp.UserID = &uid
	}
	cp.ClearNew()
	cp.ClearDirty()
	return &cp
}
