// Package redis provides a Redis-backed session store. Sessions expire
// through Redis TTLs, so no cleanup job is needed, and lookups stay
// fast under load. Use it when sessions are ephemeral or the
// application already runs Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/loom/pkg/session"
)

// Key layout. Tokens resolve sessions, IDs resolve tokens, and a per-user
// set backs DeleteByUserID.
const (
	tokenKeyPrefix = "session:token:"
	idKeyPrefix    = "session:id:"
	userKeyPrefix  = "session:user:"
)

var _ session.Store = (*Store)(nil)

// Store persists sessions in Redis with TTL-driven expiry.
type Store struct {
	client redis.UniversalClient
}

// New creates a session store using the given Redis client.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// record is the wire form of a session. Unexported lifecycle flags stay
// behind; a session read back from Redis is by definition persisted.
type record struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	UserID       *string        `json:"user_id,omitempty"`
	Values       map[string]any `json:"values,omitempty"`
	ID           string         `json:"id"`
	Token        string         `json:"token"`
	IP           string         `json:"ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	Device       string         `json:"device,omitempty"`
}

// Create persists a new session.
func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return session.ErrExpired
	}

	payload, err := json.Marshal(toRecord(sess))
	if err != nil {
		return fmt.Errorf("session/redis: encode: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, tokenKeyPrefix+sess.Token, payload, ttl)
	pipe.Set(ctx, idKeyPrefix+sess.ID, sess.Token, ttl)
	if sess.UserID != nil && *sess.UserID != "" {
		userKey := userKeyPrefix + *sess.UserID
		pipe.SAdd(ctx, userKey, sess.ID)
		pipe.ExpireGT(ctx, userKey, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session/redis: create: %w", err)
	}
	return nil
}

// Get retrieves a session by its token. A missing key means either the
// session never existed or its TTL ran out; both report as ErrNotFound
// because Redis cannot tell them apart.
func (s *Store) Get(ctx context.Context, token string) (*session.Session, error) {
	payload, err := s.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("session/redis: get: %w", err)
	}

	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("session/redis: decode: %w", err)
	}

	sess := fromRecord(&rec)
	if sess.IsExpired() {
		return nil, session.ErrExpired
	}
	return sess, nil
}

// Update saves changes to an existing session. A rotated token replaces
// the old token key atomically within a transaction pipeline.
func (s *Store) Update(ctx context.Context, sess *session.Session) error {
	oldToken, err := s.client.Get(ctx, idKeyPrefix+sess.ID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.ErrNotFound
		}
		return fmt.Errorf("session/redis: update: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return session.ErrExpired
	}

	payload, err := json.Marshal(toRecord(sess))
	if err != nil {
		return fmt.Errorf("session/redis: encode: %w", err)
	}

	pipe := s.client.TxPipeline()
	if oldToken != sess.Token {
		pipe.Del(ctx, tokenKeyPrefix+oldToken)
	}
	pipe.Set(ctx, tokenKeyPrefix+sess.Token, payload, ttl)
	pipe.Set(ctx, idKeyPrefix+sess.ID, sess.Token, ttl)
	if sess.UserID != nil && *sess.UserID != "" {
		userKey := userKeyPrefix + *sess.UserID
		pipe.SAdd(ctx, userKey, sess.ID)
		pipe.ExpireGT(ctx, userKey, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session/redis: update: %w", err)
	}
	return nil
}

// Delete removes a session by its ID. Deleting a missing session is not
// an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	token, err := s.client.Get(ctx, idKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("session/redis: delete: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, tokenKeyPrefix+token)
	pipe.Del(ctx, idKeyPrefix+id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session/redis: delete: %w", err)
	}
	return nil
}

// DeleteByUserID removes all sessions for a user.
func (s *Store) DeleteByUserID(ctx context.Context, userID string) error {
	userKey := userKeyPrefix + userID
	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("session/redis: delete by user: %w", err)
	}

	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			return err
		}
	}

	if err := s.client.Del(ctx, userKey).Err(); err != nil {
		return fmt.Errorf("session/redis: delete by user: %w", err)
	}
	return nil
}

// Touch updates the LastActiveAt timestamp without changing the TTL. It
// rewrites the payload in place, keyed off the current token.
func (s *Store) Touch(ctx context.Context, id string, lastActiveAt time.Time) error {
	token, err := s.client.Get(ctx, idKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.ErrNotFound
		}
		return fmt.Errorf("session/redis: touch: %w", err)
	}

	payload, err := s.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.ErrNotFound
		}
		return fmt.Errorf("session/redis: touch: %w", err)
	}

	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return fmt.Errorf("session/redis: decode: %w", err)
	}
	rec.LastActiveAt = lastActiveAt

	updated, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("session/redis: encode: %w", err)
	}

	// KEEPTTL preserves the remaining expiry set at create/update time.
	if err := s.client.Set(ctx, tokenKeyPrefix+token, updated, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("session/redis: touch: %w", err)
	}
	return nil
}

func toRecord(sess *session.Session) *record {
	return &record{
		ID:           sess.ID,
		Token:        sess.Token,
		UserID:       sess.UserID,
		Values:       sess.Values,
		IP:           sess.IP,
		UserAgent:    sess.UserAgent,
		Device:       sess.Device,
		CreatedAt:    sess.CreatedAt,
		LastActiveAt: sess.LastActiveAt,
		ExpiresAt:    sess.ExpiresAt,
	}
}

func fromRecord(rec *record) *session.Session {
	values := rec.Values
	if values == nil {
		values = make(map[string]any)
	}
	return &session.Session{
		ID:           rec.ID,
		Token:        rec.Token,
		UserID:       rec.UserID,
		Values:       values,
		IP:           rec.IP,
		UserAgent:    rec.UserAgent,
		Device:       rec.Device,
		CreatedAt:    rec.CreatedAt,
		LastActiveAt: rec.LastActiveAt,
		ExpiresAt:    rec.ExpiresAt,
	}
}
