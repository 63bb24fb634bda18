package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
)

// AuditSink records user mutations best effort.
type AuditSink interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service handles user management. Reads are scoped through the resolver;
// mutations require admin or above.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	audit    AuditSink
}

// NewService builds a Service instance.
func NewService(repo Repository, resolver *authz.Resolver, sink AuditSink) *Service {
	return &Service{repo: repo, resolver: resolver, audit: sink}
}

// RoleOf implements the impersonation Directory: only active users can be
// impersonated.
func (s *Service) RoleOf(ctx context.Context, userID int64) (authz.Role, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", shared.ErrNotFound
	}
	return user.Role, nil
}

// List returns users visible to the actor. A csm or user with an empty
// scope gets an empty collection, not an error.
func (s *Service) List(ctx context.Context, actor authz.Actor, filters shared.ListFilters) ([]User, int, error) {
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

// Get returns a user by id. Direct access to a user outside the actor's
// scope fails with Forbidden rather than pretending the user is absent.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if actor.ID == id {
		return user, nil
	}
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return User{}, err
	}
	if scope.All {
		return user, nil
	}
	if user.AccountID == nil {
		return User{}, shared.ErrOutOfScope
	}
	if err := scope.Authorize(*user.AccountID); err != nil {
		return User{}, err
	}
	return user, nil
}

// CreateParams carries the fields accepted on user creation.
type CreateParams struct {
	Email     string
	Name      string
	Password  string
	Role      authz.Role
	AccountID *int64
}

// Create provisions a new user. Only superadmins may create admins or other
// superadmins.
func (s *Service) Create(ctx context.Context, actor authz.Actor, params CreateParams) (User, error) {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return User{}, shared.ErrInsufficientRole
	}
	params.Email = strings.TrimSpace(strings.ToLower(params.Email))
	params.Name = strings.TrimSpace(params.Name)
	if params.Email == "" || params.Name == "" || len(params.Password) < 8 {
		return User{}, shared.ErrValidation
	}
	if !params.Role.Valid() {
		return User{}, shared.ErrValidation
	}
	if params.Role.AtLeast(authz.RoleAdmin) && actor.Role != authz.RoleSuperadmin {
		return User{}, fmt.Errorf("only superadmin may grant role %s: %w", params.Role, shared.ErrInsufficientRole)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.Create(ctx, User{
		Email:        params.Email,
		Name:         params.Name,
		Role:         params.Role,
		AccountID:    params.AccountID,
		IsActive:     true,
		PasswordHash: string(hash),
	})
	if err != nil {
		return User{}, err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "user.create",
		Entity:         "user",
		EntityID:       strconv.FormatInt(created.ID, 10),
		NewValues:      map[string]any{"email": created.Email, "role": string(created.Role)},
	})
	return created, nil
}

// ChangeRole updates a user's role. Same grant rule as Create: promoting to
// admin+ takes a superadmin, and so does demoting an admin+.
func (s *Service) ChangeRole(ctx context.Context, actor authz.Actor, id int64, role authz.Role) error {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return shared.ErrInsufficientRole
	}
	if !role.Valid() {
		return shared.ErrValidation
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if (role.AtLeast(authz.RoleAdmin) || current.Role.AtLeast(authz.RoleAdmin)) && actor.Role != authz.RoleSuperadmin {
		return fmt.Errorf("only superadmin may change admin-level roles: %w", shared.ErrInsufficientRole)
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "user.role_change",
		Entity:         "user",
		EntityID:       strconv.FormatInt(id, 10),
		OldValues:      map[string]any{"role": string(current.Role)},
		NewValues:      map[string]any{"role": string(role)},
	})
	return nil
}

// SetActive enables or disables a user account.
func (s *Service) SetActive(ctx context.Context, actor authz.Actor, id int64, active bool) error {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return shared.ErrInsufficientRole
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Role.AtLeast(authz.RoleAdmin) && actor.Role != authz.RoleSuperadmin {
		return fmt.Errorf("only superadmin may deactivate admin-level users: %w", shared.ErrInsufficientRole)
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "user.set_active",
		Entity:         "user",
		EntityID:       strconv.FormatInt(id, 10),
		OldValues:      map[string]any{"is_active": current.IsActive},
		NewValues:      map[string]any{"is_active": active},
	})
	return nil
}
