package token

import (
	"errors"
	"testing"
	"time"

	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
)

func TestIssueAndVerifyAccess(t *testing.T) {
	mgr := NewManager("secret", time.Hour, time.Hour)

	raw, err := mgr.IssueAccess(42, authz.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := mgr.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 || claims.Role != string(authz.RoleAdmin) {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.TokenType != TypeAccess {
		t.Errorf("token type = %q, want %q", claims.TokenType, TypeAccess)
	}

	actor := claims.Actor()
	if actor.ID != 42 || actor.IsImpersonated() {
		t.Errorf("unexpected actor: %+v", actor)
	}
}

func TestIssueAndVerifyImpersonation(t *testing.T) {
	mgr := NewManager("secret", time.Hour, 30*time.Minute)

	raw, err := mgr.IssueImpersonation(7, 42, authz.RoleUser, "sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := mgr.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.TokenType != TypeImpersonation {
		t.Fatalf("token type = %q", claims.TokenType)
	}
	if claims.UserID != 42 || claims.ImpersonatorID != 7 || claims.SessionID != "sess-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	actor := claims.Actor()
	if !actor.IsImpersonated() {
		t.Fatalf("actor should be impersonated")
	}
	if actor.ID != 42 || *actor.ImpersonatorID != 7 || actor.SessionID != "sess-1" {
		t.Errorf("unexpected actor: %+v", actor)
	}
}

func TestImpersonationTTLClamped(t *testing.T) {
	mgr := NewManager("secret", 24*time.Hour, 12*time.Hour)
	if got := mgr.ImpersonationTTL(); got != MaxImpersonationTTL {
		t.Fatalf("ttl = %v, want clamp to %v", got, MaxImpersonationTTL)
	}

	mgr = NewManager("secret", 24*time.Hour, 30*time.Minute)
	if got := mgr.ImpersonationTTL(); got != 30*time.Minute {
		t.Fatalf("ttl = %v, want 30m", got)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	mgr := NewManager("secret", time.Hour, time.Hour)
	other := NewManager("another-secret", time.Hour, time.Hour)

	raw, err := other.IssueAccess(1, authz.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.Verify(raw); !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
	if _, err := mgr.Verify("not-a-token"); !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	mgr := NewManager("secret", time.Hour, time.Hour)
	mgr.accessTTL = -time.Minute

	raw, err := mgr.IssueAccess(1, authz.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.Verify(raw); !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
}

func TestVerifyRejectsIncompleteImpersonationClaims(t *testing.T) {
	mgr := NewManager("secret", time.Hour, time.Hour)

	// Impersonation token minted without a session binding.
	raw, err := mgr.IssueImpersonation(0, 42, authz.RoleUser, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.Verify(raw); !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	mgr := NewManager("secret", time.Hour, time.Hour)

	raw, err := mgr.IssueAccess(1, authz.Role("bogus"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.Verify(raw); !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
}
