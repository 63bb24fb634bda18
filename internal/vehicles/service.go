package vehicles

import (
	"context"
	"strconv"
	"strings"

	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
)

// AuditSink records vehicle mutations best effort.
type AuditSink interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service handles fleet business logic. Reads follow the actor's scope.
// Mutations need at least csm rank and must target an in-scope account.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	audit    AuditSink
}

// NewService builds a Service instance.
func NewService(repo Repository, resolver *authz.Resolver, sink AuditSink) *Service {
	return &Service{repo: repo, resolver: resolver, audit: sink}
}

// List returns vehicles visible to the actor.
func (s *Service) List(ctx context.Context, actor authz.Actor, filters shared.ListFilters) ([]Vehicle, int, error) {
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

// Get returns one vehicle; outside-scope direct access is Forbidden.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (Vehicle, error) {
	vehicle, err := s.repo.Get(ctx, id)
	if err != nil {
		return Vehicle{}, err
	}
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return Vehicle{}, err
	}
	if err := scope.Authorize(vehicle.AccountID); err != nil {
		return Vehicle{}, err
	}
	return vehicle, nil
}

// Create adds a vehicle to an account's fleet.
func (s *Service) Create(ctx context.Context, actor authz.Actor, vehicle Vehicle) (Vehicle, error) {
	if !actor.Role.AtLeast(authz.RoleCSM) {
		return Vehicle{}, shared.ErrInsufficientRole
	}
	if err := s.validate(vehicle); err != nil {
		return Vehicle{}, err
	}
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return Vehicle{}, err
	}
	if err := scope.Authorize(vehicle.AccountID); err != nil {
		return Vehicle{}, err
	}

	created, err := s.repo.Create(ctx, vehicle)
	if err != nil {
		return Vehicle{}, err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "vehicle.create",
		Entity:         "vehicle",
		EntityID:       strconv.FormatInt(created.ID, 10),
		NewValues:      map[string]any{"plate_number": created.PlateNumber, "account_id": created.AccountID},
	})
	return created, nil
}

// Update modifies a vehicle. The account binding cannot change here.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id int64, vehicle Vehicle) error {
	if !actor.Role.AtLeast(authz.RoleCSM) {
		return shared.ErrInsufficientRole
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	scope, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return err
	}
	if err := scope.Authorize(current.AccountID); err != nil {
		return err
	}
	vehicle.ID = id
	vehicle.AccountID = current.AccountID
	if err := s.validate(vehicle); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, vehicle); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "vehicle.update",
		Entity:         "vehicle",
		EntityID:       strconv.FormatInt(id, 10),
		OldValues:      map[string]any{"status": current.Status, "daily_rate_cents": current.DailyRateCents},
		NewValues:      map[string]any{"status": vehicle.Status, "daily_rate_cents": vehicle.DailyRateCents},
	})
	return nil
}

// Delete removes a vehicle from the fleet. Admin and above only.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return shared.ErrInsufficientRole
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:        actor.ID,
		ImpersonatorID: actor.ImpersonatorID,
		Action:         "vehicle.delete",
		Entity:         "vehicle",
		EntityID:       strconv.FormatInt(id, 10),
		OldValues:      map[string]any{"plate_number": current.PlateNumber, "account_id": current.AccountID},
	})
	return nil
}

func (s *Service) validate(v Vehicle) error {
	if strings.TrimSpace(v.PlateNumber) == "" {
		return shared.ErrValidation
	}
	if v.AccountID <= 0 {
		return shared.ErrValidation
	}
	if !validStatus(v.Status) {
		return shared.ErrValidation
	}
	if v.DailyRateCents < 0 {
		return shared.ErrValidation
	}
	return nil
}
