package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Codec converts values to and from the bytes Redis stores.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// JSONCodec is the default codec.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return data, nil
}

func (JSONCodec[V]) Decode(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrDecode, err)
	}
	return v, nil
}

// Redis is a Cache shared across processes through a Redis instance.
type Redis[V any] struct {
	client redis.UniversalClient
	codec  Codec[V]
	cfg    config
}

var _ Cache[any] = (*Redis[any])(nil)

// NewRedis builds a Redis-backed cache on an open client, typically
// from pkg/redis.Open. A nil codec falls back to JSON.
//
//	c := cache.NewRedis[Profile](client, nil,
//	    cache.WithKeyPrefix("profiles"),
//	    cache.WithDefaultTTL(30*time.Minute),
//	)
func NewRedis[V any](client redis.UniversalClient, codec Codec[V], opts ...Option) *Redis[V] {
	if codec == nil {
		codec = JSONCodec[V]{}
	}
	return &Redis[V]{
		client: client,
		codec:  codec,
		cfg:    newConfig(opts),
	}
}

// Get implements Cache.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	v, err := r.codec.Decode(data)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Set implements Cache. A negative ttl maps to no Redis expiry.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Encode(value)
	if err != nil {
		return err
	}

	if ttl == 0 {
		ttl = r.cfg.defaultTTL
	}
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

// Delete implements Cache.
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Clear implements Cache. With a key prefix only the prefix's keys
// are scanned and deleted; without one the whole database is flushed.
func (r *Redis[V]) Clear(ctx context.Context) error {
	if r.cfg.prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.cfg.prefix+":*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if cursor = next; cursor == 0 {
			return nil
		}
	}
}

// Close is a no-op; the Redis client's lifecycle belongs to whoever
// opened it.
func (r *Redis[V]) Close() error {
	return nil
}

func (r *Redis[V]) key(key string) string {
	if r.cfg.prefix == "" {
		return key
	}
	return r.cfg.prefix + ":" + key
}
