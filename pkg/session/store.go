package session

import (
	"context"
	"time"
)

// Store persists sessions. The framework ships three
// implementations: memory for tests and single-process apps, redis,
// and postgres. Anything satisfying this interface plugs into
// loom.WithSession.
type Store interface {
	// Create persists a session that does not exist yet.
	Create(ctx context.Context, s *Session) error

	// Get looks a session up by its cookie token. It returns
	// ErrNotFound for unknown tokens and ErrExpired for sessions
	// past their lifetime; implementations are free to delete
	// expired sessions on read.
	Get(ctx context.Context, token string) (*Session, error)

	// Update overwrites a stored session. The token is part of the
	// stored state, which is what makes rotation work: after Update
	// the old token no longer resolves.
	Update(ctx context.Context, s *Session) error

	// Delete removes a session by ID. Deleting an unknown ID is not
	// an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes every session belonging to a user, the
	// "log out everywhere" operation.
	DeleteByUserID(ctx context.Context, userID string) error

	// Touch advances LastActiveAt without rewriting the session.
	Touch(ctx context.Context, id string, lastActiveAt time.Time) error
}
