// Package auth implements login, logout, and the authenticated-identity
// endpoint for the admin API.
package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/shared"
	"github.com/rentora/rentora-admin/internal/token"
	"github.com/rentora/rentora-admin/internal/users"
)

// UserSource looks up users for credential checks.
type UserSource interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

// AuditSink records auth events best effort.
type AuditSink interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service wraps authentication business rules.
type Service struct {
	userSource UserSource
	tokens     *token.Manager
	blacklist  *token.Blacklist
	audit      AuditSink
}

// NewService constructs a new Service.
func NewService(userSource UserSource, tokens *token.Manager, blacklist *token.Blacklist, sink AuditSink) *Service {
	return &Service{userSource: userSource, tokens: tokens, blacklist: blacklist, audit: sink}
}

// LoginResult is the issued credential pair.
type LoginResult struct {
	Token string     `json:"token"`
	User  users.User `json:"user"`
}

// Login validates email/password credentials and mints an access token.
// Unknown email, wrong password, and deactivated account all produce the
// same error so the response does not leak which one it was.
func (s *Service) Login(ctx context.Context, email, password, ip, userAgent string) (LoginResult, error) {
	user, err := s.userSource.FindByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, shared.ErrInvalidCredentials
	}

	minted, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:   user.ID,
		Action:    "auth.login",
		Entity:    "user",
		EntityID:  email,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	return LoginResult{Token: minted, User: user}, nil
}

// Logout revokes the presented token for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, raw string) error {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.blacklist.Revoke(ctx, raw, expiresAt); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:  claims.UserID,
		Action:   "auth.logout",
		Entity:   "user",
		EntityID: claims.Subject,
	})
	return nil
}
