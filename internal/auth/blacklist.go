package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "invoicebox:token:"

// Blacklist revokes tokens before they expire, either one token by its ID or
// every token issued to a user up to now.
type Blacklist struct {
	client *redis.Client
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

func jtiKey(jti string) string     { return keyPrefix + "jti:" + jti }
func userKey(userID string) string { return keyPrefix + "user:" + userID }

func (b *Blacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := b.client.Set(ctx, jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	return nil
}

func (b *Blacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("checking token blacklist: %w", err)
	}

	return n > 0, nil
}

// RevokeUser invalidates every token issued to the user up to now.
func (b *Blacklist) RevokeUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	if err := b.client.Set(ctx, userKey(userID), at.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoking user tokens: %w", err)
	}

	return nil
}

func (b *Blacklist) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	v, err := b.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("checking user revocation: %w", err)
	}

	revokedAt, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parsing revocation time: %w", err)
	}

	return issuedAt.Unix() <= revokedAt, nil
}
