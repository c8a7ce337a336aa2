package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "auth:blacklist:"

// TokenBlacklist records revoked access tokens until they expire.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenKey string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenKey string) (bool, error)
}

// RedisBlacklist stores revoked token keys in Redis with a TTL equal to the token's remaining lifetime.
type RedisBlacklist struct {
	rdb *redis.Client
}

// NewRedisBlacklist creates a RedisBlacklist.
func NewRedisBlacklist(rdb *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{rdb: rdb}
}

// Revoke blacklists tokenKey. Tokens that are already expired are ignored.
func (b *RedisBlacklist) Revoke(ctx context.Context, tokenKey string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := b.rdb.Set(ctx, blacklistKeyPrefix+tokenKey, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenKey has been blacklisted.
func (b *RedisBlacklist) IsRevoked(ctx context.Context, tokenKey string) (bool, error) {
	err := b.rdb.Get(ctx, blacklistKeyPrefix+tokenKey).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return true, nil
}

// NoopBlacklist is used when Redis is disabled or unreachable.
type NoopBlacklist struct{}

func (NoopBlacklist) Revoke(context.Context, string, time.Time) error { return nil }

func (NoopBlacklist) IsRevoked(context.Context, string) (bool, error) { return false, nil }
