package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyPort guards a mutation against double submission.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// DefaultIdempotencyRetention bounds how long a key blocks a retry.
const DefaultIdempotencyRetention = 24 * time.Hour

func checkIdempotencyArgs(key, module string) error {
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	return nil
}

// IdempotencyStore persists processed keys in PostgreSQL.
type IdempotencyStore struct {
	pool      *pgxpool.Pool
	retention time.Duration
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool, retention time.Duration) *IdempotencyStore {
	if retention <= 0 {
		retention = DefaultIdempotencyRetention
	}
	return &IdempotencyStore{pool: pool, retention: retention}
}

// CheckAndInsert ensures key uniqueness per module. Keys older than the retention are reclaimed.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if err := checkIdempotencyArgs(key, module); err != nil {
		return err
	}
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)
ON CONFLICT (key, module) DO UPDATE SET created_at = EXCLUDED.created_at
WHERE idempotency_keys.created_at < $4`, key, module, now, now.Add(-s.retention))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Delete removes a key, typically used to roll back failed processing.
func (s *IdempotencyStore) Delete(ctx context.Context, key, module string) error {
	if s == nil {
		return nil
	}
	if err := checkIdempotencyArgs(key, module); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key=$1 AND module=$2`, key, module)
	return err
}

// RedisIdempotency keeps processed keys in Redis with a TTL.
type RedisIdempotency struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisIdempotency constructs the Redis-backed guard.
func NewRedisIdempotency(client *redis.Client, retention time.Duration) *RedisIdempotency {
	if retention <= 0 {
		retention = DefaultIdempotencyRetention
	}
	return &RedisIdempotency{client: client, retention: retention}
}

func redisIdempotencyKey(key, module string) string {
	return "idempotency:" + module + ":" + key
}

// CheckAndInsert claims the key with SET NX.
func (r *RedisIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if r == nil || r.client == nil {
		return errors.New("idempotency store not initialised")
	}
	if err := checkIdempotencyArgs(key, module); err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, redisIdempotencyKey(key, module), time.Now().UTC().Format(time.RFC3339), r.retention).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrIdempotencyConflict
	}
	return nil
}

// Delete releases the key.
func (r *RedisIdempotency) Delete(ctx context.Context, key, module string) error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := checkIdempotencyArgs(key, module); err != nil {
		return err
	}
	return r.client.Del(ctx, redisIdempotencyKey(key, module)).Err()
}
