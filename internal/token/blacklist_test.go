package token

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestBlacklist(t *testing.T) (*Blacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBlacklist(client), mr
}

func TestBlacklistRevoke(t *testing.T) {
	bl, _ := newTestBlacklist(t)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatalf("fresh token should not be revoked")
	}

	if err := bl.Revoke(ctx, "tok-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err = bl.IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatalf("token should be revoked")
	}

	// A different token must not be affected.
	revoked, err = bl.IsRevoked(ctx, "tok-2")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatalf("unrelated token revoked")
	}
}

func TestBlacklistEntryExpires(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	if err := bl.Revoke(ctx, "tok-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	revoked, err := bl.IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatalf("entry should expire with the token")
	}
}

func TestBlacklistExpiredTokenIsNoop(t *testing.T) {
	bl, mr := newTestBlacklist(t)

	if err := bl.Revoke(context.Background(), "tok-1", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("no key should be written for an already expired token")
	}
}
