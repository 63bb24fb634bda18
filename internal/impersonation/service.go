package impersonation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
	"github.com/rentora/rentora-admin/internal/token"
)

// Directory resolves user ids to roles. Returns shared.ErrNotFound for
// unknown ids.
type Directory interface {
	RoleOf(ctx context.Context, userID int64) (authz.Role, error)
}

// Notifier fans out security alerts for session lifecycle events. Calls are
// best effort; failures must not affect the session operation.
type Notifier interface {
	SessionStarted(ctx context.Context, session Session)
	SessionEnded(ctx context.Context, session Session)
}

// AuditSink records session mutations best effort.
type AuditSink interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service creates, validates, and ends impersonation sessions.
type Service struct {
	repo     Repository
	users    Directory
	tokens   *token.Manager
	audit    AuditSink
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service. notifier may be nil.
func NewService(repo Repository, users Directory, tokens *token.Manager, sink AuditSink, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		tokens:   tokens,
		audit:    sink,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// StartResult bundles the created session with its minted token.
type StartResult struct {
	Session Session `json:"session"`
	Token   string  `json:"token"`
}

// Start opens a session impersonating targetID and mints its token.
//
// Duplicate policy: a second Start for a pair that already has an active
// session fails with Conflict rather than returning the existing session.
// The storage-level partial unique index makes that hold under concurrency.
func (s *Service) Start(ctx context.Context, actor authz.Actor, targetID int64, reason string) (StartResult, error) {
	if actor.IsImpersonated() {
		return StartResult{}, fmt.Errorf("nested impersonation is not allowed: %w", shared.ErrInsufficientRole)
	}
	if actor.ID == targetID {
		return StartResult{}, fmt.Errorf("cannot impersonate yourself: %w", shared.ErrInsufficientRole)
	}
	targetRole, err := s.users.RoleOf(ctx, targetID)
	if err != nil {
		return StartResult{}, err
	}
	if !authz.CanImpersonate(actor.Role, targetRole) {
		return StartResult{}, fmt.Errorf("role %s cannot impersonate role %s: %w", actor.Role, targetRole, shared.ErrInsufficientRole)
	}

	now := s.now()
	session := Session{
		ID:               uuid.NewString(),
		ImpersonatorID:   actor.ID,
		ImpersonatorRole: actor.Role,
		ImpersonatedID:   targetID,
		ImpersonatedRole: targetRole,
		Reason:           reason,
		Status:           StatusActive,
		StartedAt:        now,
		ExpiresAt:        now.Add(s.tokens.ImpersonationTTL()),
	}
	created, err := s.repo.Create(ctx, session)
	if err != nil {
		return StartResult{}, err
	}

	minted, err := s.tokens.IssueImpersonation(actor.ID, targetID, targetRole, created.ID)
	if err != nil {
		// Token minting should not fail; close the orphaned session so the
		// pair is not locked out until the sweep runs.
		if _, finishErr := s.repo.Finish(ctx, created.ID, StatusCompleted, s.now(), nil, "token issuance failed"); finishErr != nil && s.logger != nil {
			s.logger.Error("close orphaned session", slog.String("session_id", created.ID), slog.Any("error", finishErr))
		}
		return StartResult{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:  actor.ID,
		Action:   "impersonation.start",
		Entity:   "impersonation_session",
		EntityID: created.ID,
		NewValues: map[string]any{
			"impersonated_id":   targetID,
			"impersonated_role": string(targetRole),
			"reason":            reason,
			"expires_at":        created.ExpiresAt,
		},
	})
	if s.notifier != nil {
		s.notifier.SessionStarted(ctx, created)
	}
	return StartResult{Session: created, Token: minted}, nil
}

// Validate checks an impersonation token's claims against the stored
// session. An active session found past its expiry is lazily finalized to
// completed before validation fails, so no background sweep is strictly
// required for correctness.
func (s *Service) Validate(ctx context.Context, claims *token.Claims) (Session, error) {
	if claims.TokenType != token.TypeImpersonation || claims.SessionID == "" || claims.ImpersonatorID == 0 {
		return Session{}, shared.ErrUnauthenticated
	}
	session, err := s.repo.Get(ctx, claims.SessionID)
	if err != nil {
		return Session{}, shared.ErrInvalidImpersonationState
	}
	if session.Expired(s.now()) {
		if _, err := s.repo.Finish(ctx, session.ID, StatusCompleted, session.ExpiresAt, nil, ""); err != nil && s.logger != nil {
			s.logger.Warn("lazy session expiry", slog.String("session_id", session.ID), slog.Any("error", err))
		}
		return Session{}, shared.ErrInvalidImpersonationState
	}
	if session.Status != StatusActive {
		return Session{}, shared.ErrInvalidImpersonationState
	}
	if session.ImpersonatorID != claims.ImpersonatorID || session.ImpersonatedID != claims.UserID {
		return Session{}, shared.ErrInvalidImpersonationState
	}
	return session, nil
}

// End finishes a session. The impersonator completes their own session; a
// different superadmin terminates it as an emergency override. A completed
// or terminated session cannot be ended again.
func (s *Service) End(ctx context.Context, actor authz.Actor, sessionID, reason string) (Session, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	var ended Session
	switch {
	case actor.ID == session.ImpersonatorID:
		ended, err = s.repo.Finish(ctx, sessionID, StatusCompleted, now, nil, "")
	case actor.Role == authz.RoleSuperadmin:
		terminatedBy := actor.ID
		ended, err = s.repo.Finish(ctx, sessionID, StatusTerminated, now, &terminatedBy, reason)
	default:
		return Session{}, fmt.Errorf("session belongs to another impersonator: %w", shared.ErrOutOfScope)
	}
	if err != nil {
		return Session{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:  actor.ID,
		Action:   "impersonation." + string(ended.Status),
		Entity:   "impersonation_session",
		EntityID: ended.ID,
		OldValues: map[string]any{
			"status": string(StatusActive),
		},
		NewValues: map[string]any{
			"status": string(ended.Status),
			"reason": reason,
		},
	})
	if s.notifier != nil {
		s.notifier.SessionEnded(ctx, ended)
	}
	return ended, nil
}

// List returns sessions visible to the actor: superadmins see everything,
// admins only sessions they started.
func (s *Service) List(ctx context.Context, actor authz.Actor) ([]Session, error) {
	switch actor.Role {
	case authz.RoleSuperadmin:
		return s.repo.List(ctx, 0)
	case authz.RoleAdmin:
		return s.repo.List(ctx, actor.ID)
	default:
		return nil, shared.ErrInsufficientRole
	}
}

// Get returns one session under the same visibility rules as List.
func (s *Service) Get(ctx context.Context, actor authz.Actor, sessionID string) (Session, error) {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return Session{}, shared.ErrInsufficientRole
	}
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if actor.Role != authz.RoleSuperadmin && session.ImpersonatorID != actor.ID {
		return Session{}, shared.ErrOutOfScope
	}
	return session, nil
}

// SweepExpired finalizes active sessions past their expiry. Used by the
// background worker; the lazy path in Validate covers reads in between.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpiredActive(ctx, s.now(), 500)
	if err != nil {
		return 0, err
	}
	finalized := 0
	for _, session := range expired {
		if _, err := s.repo.Finish(ctx, session.ID, StatusCompleted, session.ExpiresAt, nil, ""); err != nil {
			// Another instance may have finished it first; that is fine.
			if s.logger != nil {
				s.logger.Debug("sweep finish", slog.String("session_id", session.ID), slog.Any("error", err))
			}
			continue
		}
		finalized++
	}
	return finalized, nil
}
