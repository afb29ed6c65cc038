package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "token:blacklist:"

// TokenBlacklist revokes tokens until their natural expiry.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisTokenBlacklist stores revoked token IDs in Redis with a TTL
// matching the remaining token lifetime.
type RedisTokenBlacklist struct {
	client *redis.Client
}

func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired, nothing to revoke.
		return nil
	}
	if err := b.client.Set(ctx, blacklistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}

// NoopTokenBlacklist is used when Redis is not configured. Logout still
// succeeds but tokens remain valid until expiry.
type NoopTokenBlacklist struct{}

func (NoopTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return nil
}

func (NoopTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return false, nil
}
