package payments

import (
	"context"

	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
)

// Service handles payment reporting.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
}

// NewService builds a Service instance.
func NewService(repo Repository, resolver *authz.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// List returns payments visible to the actor.
func (s *Service) List(ctx context.Context, actor authz.Actor, filters shared.ListFilters) ([]Payment, int, error) {
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
