package assignments

import (
	"context"
	"strconv"

	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
)

// AuditSink records assignment mutations best effort.
type AuditSink interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service handles assignment business logic. Only admin and superadmin may
// change assignments; csm and user scopes are derived, never self-managed.
type Service struct {
	repo  Repository
	audit AuditSink
}

// NewService builds a Service instance.
func NewService(repo Repository, sink AuditSink) *Service {
	return &Service{repo: repo, audit: sink}
}

// ListByAccount returns the assignments referencing an account.
func (s *Service) ListByAccount(ctx context.Context, actor authz.Actor, accountID int64) ([]Assignment, error) {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return nil, shared.ErrInsufficientRole
	}
	return s.repo.ListByAccount(ctx, accountID)
}

// Create binds an actor to an account.
func (s *Service) Create(ctx context.Context, actor authz.Actor, accountID, targetActorID int64) (Assignment, error) {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return Assignment{}, shared.ErrInsufficientRole
	}
	if accountID <= 0 || targetActorID <= 0 {
		return Assignment{}, shared.ErrValidation
	}
	created, err := s.repo.Create(ctx, accountID, targetActorID, actor.ID)
	if err != nil {
		return Assignment{}, err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "assignment.create",
		Entity:         "assignment",
		EntityID:       strconv.FormatInt(created.ID, 10),
		NewValues:      map[string]any{"account_id": accountID, "actor_id": targetActorID},
	})
	return created, nil
}

// Delete removes an assignment. The actor loses access on their next
// request since scopes are resolved live.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return shared.ErrInsufficientRole
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "assignment.delete",
		Entity:         "assignment",
		EntityID:       strconv.FormatInt(id, 10),
		OldValues:      map[string]any{"account_id": removed.AccountID, "actor_id": removed.ActorID},
	})
	return nil
}
