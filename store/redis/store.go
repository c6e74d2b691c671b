// Package redis implements store.Store using Redis. Entities are stored as
// JSON strings with Set indexes for enumeration; the alert ledger keys on
// the (job, user) pair directly so upserts are single-key writes.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Arch199/crontrack/alert"
	"github.com/Arch199/crontrack/event"
	"github.com/Arch199/crontrack/job"
	"github.com/Arch199/crontrack/user"
)

// Compile-time interface checks.
var (
	_ job.Store   = (*Store)(nil)
	_ user.Store  = (*Store)(nil)
	_ alert.Store = (*Store)(nil)
	_ event.Store = (*Store)(nil)
)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements the composite store.Store interface backed by Redis.
type Store struct {
	rdb    redis.Cmdable
	logger *slog.Logger
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{rdb: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() redis.Cmdable { return s.rdb }

// Migrate is a no-op for Redis (schemaless).
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close is a no-op -- the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }

// ── Entity helpers ──

// setEntity marshals v to JSON and stores it at key.
func (s *Store) setEntity(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, data, 0).Err()
}

// getEntity loads the JSON value at key into v.
func (s *Store) getEntity(ctx context.Context, key string, v interface{}) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// isRedisNil reports whether err is the redis "key does not exist" reply.
func isRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
