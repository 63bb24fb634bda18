package accounts

import (
	"context"
	"strconv"
	"strings"

	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
)

// AuditSink records account mutations best effort.
type AuditSink interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service handles account business logic.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	audit    AuditSink
}

// NewService builds a Service instance.
func NewService(repo Repository, resolver *authz.Resolver, sink AuditSink) *Service {
	return &Service{repo: repo, resolver: resolver, audit: sink}
}

// List returns accounts visible to the actor.
func (s *Service) List(ctx context.Context, actor authz.Actor, filters shared.ListFilters) ([]Account, int, error) {
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	var accountIDs []int64
	if !scope.All {
		accountIDs = scope.AccountIDs
		if accountIDs == nil {
			accountIDs = []int64{}
		}
	}
	return s.repo.List(ctx, filters, accountIDs)
}

// Get returns one account; outside-scope direct access is Forbidden.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (Account, error) {
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return Account{}, err
	}
	if err := scope.Authorize(id); err != nil {
		return Account{}, err
	}
	return s.repo.Get(ctx, id)
}

// Create provisions a new account. Admin and above only.
func (s *Service) Create(ctx context.Context, actor authz.Actor, name, contactEmail string) (Account, error) {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return Account{}, shared.ErrInsufficientRole
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Account{}, shared.ErrValidation
	}
	created, err := s.repo.Create(ctx, Account{Name: name, ContactEmail: strings.TrimSpace(contactEmail)})
	if err != nil {
		return Account{}, err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "account.create",
		Entity:         "account",
		EntityID:       strconv.FormatInt(created.ID, 10),
		NewValues:      map[string]any{"name": created.Name},
	})
	return created, nil
}

// Update modifies account details. Admin and above only.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id int64, name, contactEmail string) error {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return shared.ErrInsufficientRole
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrValidation
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, Account{ID: id, Name: name, ContactEmail: strings.TrimSpace(contactEmail)}); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "account.update",
		Entity:         "account",
		EntityID:       strconv.FormatInt(id, 10),
		OldValues:      map[string]any{"name": current.Name, "contact_email": current.ContactEmail},
		NewValues:      map[string]any{"name": name, "contact_email": contactEmail},
	})
	return nil
}

// SetStatus suspends or reactivates an account. Superadmin only.
func (s *Service) SetStatus(ctx context.Context, actor authz.Actor, id int64, status string) error {
	if actor.Role != authz.RoleSuperadmin {
		return shared.ErrInsufficientRole
	}
	if status != StatusActive && status != StatusSuspended {
		return shared.ErrValidation
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "account.set_status",
		Entity:         "account",
		EntityID:       strconv.FormatInt(id, 10),
		OldValues:      map[string]any{"status": current.Status},
		NewValues:      map[string]any{"status": status},
	})
	return nil
}
