// Package sessioncache keeps valid sessions in Redis so that authenticating
// a request does not need a database round trip.
package sessioncache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "session:"
	revokedPrefix = "revoked:"
)

// Cache maps a session id to its user id.
type Cache interface {
	// Get returns the cached user id and whether the session is live. A
	// revoked session is never reported live, even if a stale entry exists.
	Get(ctx context.Context, sessionID string) (string, bool, error)
	Set(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	// Revoke drops the session entry and marks it revoked for ttl.
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, cfg Config) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: rdb}, nil
}

func (c *RedisCache) Get(ctx context.Context, sessionID string) (string, bool, error) {
	vals, err := c.client.MGet(ctx, keyPrefix+sessionID, revokedPrefix+sessionID).Result()
	if err != nil {
		return "", false, err
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] != nil {
		return "", false, nil
	}
	uid, ok := vals[0].(string)
	if !ok {
		return "", false, fmt.Errorf("unexpected session value %T", vals[0])
	}
	return uid, true, nil
}

// Set stores the session for ttl. A non-positive ttl is a no-op.
func (c *RedisCache) Set(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, keyPrefix+sessionID, userID, ttl).Err()
}

// Revoke deletes the session entry and writes the revocation marker in one
// MULTI/EXEC, so a concurrent Set cannot bring the session back.
func (c *RedisCache) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keyPrefix+sessionID)
		if ttl > 0 {
			pipe.Set(ctx, revokedPrefix+sessionID, "1", ttl)
		}
		return nil
	})
	return err
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop is used when no Redis address is configured; the database stays
// authoritative for every lookup.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (Nop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Nop) Revoke(context.Context, string, time.Duration) error      { return nil }
