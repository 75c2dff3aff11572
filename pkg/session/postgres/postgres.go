// Package postgres provides a PostgreSQL-backed session store on top of
// a pgx connection pool. Sessions survive restarts and are shared
// across instances, making this the default choice for production.
//
// Apps that already hold a pool pass it to New; Connect opens a
// dedicated one. Either way the store expects the sessions table from
// [Schema]; ship it as a goose migration in your application:
//
//	-- +goose Up
//	CREATE TABLE sessions (...);
//	-- +goose Down
//	DROP TABLE sessions;
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/loom/pkg/db"
	"github.com/dmitrymomot/loom/pkg/session"
)

// Schema is the DDL the store operates against. Embed it in a goose
// migration rather than executing it directly, so schema history stays
// in one place.
const Schema = `CREATE TABLE sessions (
	id             TEXT PRIMARY KEY,
	token          TEXT NOT NULL UNIQUE,
	user_id        TEXT,
	data           JSONB NOT NULL DEFAULT '{}',
	ip             TEXT NOT NULL DEFAULT '',
	user_agent     TEXT NOT NULL DEFAULT '',
	device         TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL,
	last_active_at TIMESTAMPTZ NOT NULL,
	expires_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX sessions_user_id_idx ON sessions (user_id) WHERE user_id IS NOT NULL;
CREATE INDEX sessions_expires_at_idx ON sessions (expires_at);`

var _ session.Store = (*Store)(nil)

// Store persists sessions in a PostgreSQL table.
type Store struct {
	pool *pgxpool.Pool

	// ownsPool is set by Connect; Close only closes pools the store
	// opened itself.
	ownsPool bool
}

// New creates a session store using the given connection pool. The
// caller keeps ownership of the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a dedicated connection pool and returns a store on it.
// Use it when sessions are the only thing the app keeps in PostgreSQL:
//
//	store, err := postgres.Connect(ctx, os.Getenv("DATABASE_URL"),
//	    db.WithMaxConns(5),
//	)
func Connect(ctx context.Context, url string, opts ...db.Option) (*Store, error) {
	pool, err := db.Open(ctx, url, opts...)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, ownsPool: true}, nil
}

// Healthcheck reports whether the backing pool answers pings. Wire it
// into the app's readiness checks.
func (s *Store) Healthcheck() func(context.Context) error {
	return db.Healthcheck(s.pool)
}

// Close releases the pool when the store opened it via Connect. For
// stores built with New it is a no-op; the pool's owner closes it.
func (s *Store) Close() {
	if s.ownsPool {
		s.pool.Close()
	}
}

// Create persists a new session.
func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess.Values)
	if err != nil {
		return fmt.Errorf("session/postgres: encode values: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (id, token, user_id, data, ip, user_agent, device, created_at, last_active_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sess.ID, sess.Token, sess.UserID, data,
		sess.IP, sess.UserAgent, sess.Device,
		sess.CreatedAt, sess.LastActiveAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("session/postgres: create: %w", err)
	}
	return nil
}

// Get retrieves a session by its token. Expired rows are reported as
// session.ErrExpired and cleaned up opportunistically.
func (s *Store) Get(ctx context.Context, token string) (*session.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, token, user_id, data, ip, user_agent, device, created_at, last_active_at, expires_at
		FROM sessions WHERE token = $1`, token)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("session/postgres: get: %w", err)
	}

	if sess.IsExpired() {
		_, _ = s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sess.ID)
		return nil, session.ErrExpired
	}
	return sess, nil
}

// Update saves changes to an existing session, including rotated tokens.
func (s *Store) Update(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess.Values)
	if err != nil {
		return fmt.Errorf("session/postgres: encode values: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET token = $2, user_id = $3, data = $4, last_active_at = $5, expires_at = $6
		WHERE id = $1`,
		sess.ID, sess.Token, sess.UserID, data, sess.LastActiveAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("session/postgres: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// Delete removes a session by its ID. Deleting a missing session is not
// an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("session/postgres: delete: %w", err)
	}
	return nil
}

// DeleteByUserID removes all sessions for a user.
func (s *Store) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("session/postgres: delete by user: %w", err)
	}
	return nil
}

// Touch updates the LastActiveAt timestamp without loading the full session.
func (s *Store) Touch(ctx context.Context, id string, lastActiveAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET last_active_at = $2 WHERE id = $1`, id, lastActiveAt)
	if err != nil {
		return fmt.Errorf("session/postgres: touch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// DeleteExpired removes sessions past their expiry. Run it periodically
// from a scheduler; the store never deletes in the background itself.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("session/postgres: delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var (
		sess session.Session
		data []byte
	)
	err := row.Scan(
		&sess.ID, &sess.Token, &sess.UserID, &data,
		&sess.IP, &sess.UserAgent, &sess.Device,
		&sess.CreatedAt, &sess.LastActiveAt, &sess.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &sess.Values); err != nil {
			return nil, fmt.Errorf("session/postgres: decode values: %w", err)
		}
	}
	if sess.Values == nil {
		sess.Values = make(map[string]any)
	}
	return &sess, nil
}
