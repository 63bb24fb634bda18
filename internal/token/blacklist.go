package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist is a redis-backed revocation set consulted on every token
// verification. Entries expire with the token they revoke, so redis TTL
// eviction does the cleanup. Being shared state it survives restarts and
// works across multiple API instances, unlike a process-local map.
type Blacklist struct {
	client *redis.Client
}

// NewBlacklist constructs a Blacklist.
func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

// Revoke marks a raw token as unusable until its natural expiry.
func (b *Blacklist) Revoke(ctx context.Context, raw string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistKey(raw), "1", ttl).Err()
}

// IsRevoked reports whether a raw token has been revoked.
func (b *Blacklist) IsRevoked(ctx context.Context, raw string) (bool, error) {
	err := b.client.Get(ctx, blacklistKey(raw)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Tokens are hashed before keying so raw credentials never land in redis.
func blacklistKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return "token:blacklist:" + hex.EncodeToString(sum[:])
}
