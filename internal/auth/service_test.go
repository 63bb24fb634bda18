package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
	"github.com/rentora/rentora-admin/internal/token"
	"github.com/rentora/rentora-admin/internal/users"
)

type stubUserSource struct {
	users map[string]users.User
}

func (s *stubUserSource) FindByEmail(_ context.Context, email string) (users.User, error) {
	u, ok := s.users[email]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

type nopSink struct{}

func (nopSink) Record(context.Context, audit.Entry) {}

func newAuthFixture(t *testing.T) (*Service, *token.Manager, *token.Blacklist) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	source := &stubUserSource{users: map[string]users.User{
		"admin@rentora.test": {
			ID:           2,
			Email:        "admin@rentora.test",
			Role:         authz.RoleAdmin,
			IsActive:     true,
			PasswordHash: string(hash),
		},
		"frozen@rentora.test": {
			ID:           9,
			Email:        "frozen@rentora.test",
			Role:         authz.RoleUser,
			IsActive:     false,
			PasswordHash: string(hash),
		},
	}}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens := token.NewManager("test-secret", time.Hour, time.Hour)
	blacklist := token.NewBlacklist(client)
	return NewService(source, tokens, blacklist, nopSink{}), tokens, blacklist
}

func TestLogin(t *testing.T) {
	svc, tokens, _ := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "admin@rentora.test", "correct-horse", "10.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("missing token")
	}
	claims, err := tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("verify minted token: %v", err)
	}
	if claims.UserID != 2 || claims.Role != string(authz.RoleAdmin) {
		t.Errorf("claims = %+v", claims)
	}
	if claims.TokenType != token.TypeAccess {
		t.Errorf("token type = %q, want access", claims.TokenType)
	}
}

// All credential failures must be indistinguishable to the caller.
func TestLoginFailures(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "ghost@rentora.test", "correct-horse"},
		{"wrong password", "admin@rentora.test", "wrong"},
		{"inactive user", "frozen@rentora.test", "correct-horse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.email, tc.password, "", "")
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Fatalf("got %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, blacklist := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "admin@rentora.test", "correct-horse", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, result.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	revoked, err := blacklist.IsRevoked(ctx, result.Token)
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatalf("token should be revoked after logout")
	}
}

func TestLogoutRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	if err := svc.Logout(context.Background(), "not-a-token"); !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
}
