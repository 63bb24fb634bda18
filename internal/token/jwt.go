// Package token mints and verifies the bearer tokens accepted by the API:
// regular access tokens and short-lived impersonation tokens.
package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
)

// Token types carried in the token_type claim.
const (
	TypeAccess        = "access"
	TypeImpersonation = "impersonation"
)

// MaxImpersonationTTL caps impersonation token lifetime regardless of config.
const MaxImpersonationTTL = 2 * time.Hour

// Claims are the decoded contents of a Rentora bearer token.
// ImpersonatorID and SessionID are set only on impersonation tokens.
type Claims struct {
	UserID         int64  `json:"user_id"`
	Role           string `json:"role"`
	TokenType      string `json:"token_type"`
	ImpersonatorID int64  `json:"impersonator_id,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the request actor.
func (c *Claims) Actor() authz.Actor {
	actor := authz.Actor{ID: c.UserID, Role: authz.Role(c.Role)}
	if c.TokenType == TypeImpersonation {
		impersonator := c.ImpersonatorID
		actor.ImpersonatorID = &impersonator
		actor.SessionID = c.SessionID
	}
	return actor
}

// Manager signs and verifies tokens with a shared HMAC secret.
type Manager struct {
	secret           []byte
	accessTTL        time.Duration
	impersonationTTL time.Duration
}

// NewManager constructs a Manager. The impersonation TTL is clamped to
// MaxImpersonationTTL so misconfiguration cannot extend assumed identities.
func NewManager(secret string, accessTTL, impersonationTTL time.Duration) *Manager {
	if impersonationTTL <= 0 || impersonationTTL > MaxImpersonationTTL {
		impersonationTTL = MaxImpersonationTTL
	}
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &Manager{
		secret:           []byte(secret),
		accessTTL:        accessTTL,
		impersonationTTL: impersonationTTL,
	}
}

// ImpersonationTTL returns the effective impersonation token lifetime.
func (m *Manager) ImpersonationTTL() time.Duration {
	return m.impersonationTTL
}

// IssueAccess mints a regular session token for the given user.
func (m *Manager) IssueAccess(userID int64, role authz.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Role:      string(role),
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "rentora",
			Subject:   strconv.FormatInt(userID, 10),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// IssueImpersonation mints an impersonation token bound to a session. The
// subject is the impersonated user; the true actor rides along in
// impersonator_id and is immutable for the life of the session.
func (m *Manager) IssueImpersonation(impersonatorID, targetID int64, targetRole authz.Role, sessionID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:         targetID,
		Role:           string(targetRole),
		TokenType:      TypeImpersonation,
		ImpersonatorID: impersonatorID,
		SessionID:      sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.impersonationTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "rentora",
			Subject:   strconv.FormatInt(targetID, 10),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a raw token string. Impersonation tokens with
// a missing impersonator_id or session_id are rejected outright.
func (m *Manager) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, shared.ErrUnauthenticated
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, shared.ErrUnauthenticated
	}
	if !authz.Role(claims.Role).Valid() {
		return nil, shared.ErrUnauthenticated
	}
	switch claims.TokenType {
	case TypeAccess:
	case TypeImpersonation:
		if claims.ImpersonatorID == 0 || claims.SessionID == "" {
			return nil, shared.ErrUnauthenticated
		}
	default:
		return nil, shared.ErrUnauthenticated
	}
	return claims, nil
}
