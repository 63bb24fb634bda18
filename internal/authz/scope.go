package authz

import (
	"context"

	"github.com/rentora/rentora-admin/internal/shared"
)

// AssignmentSource provides the live set of account ids an actor is bound to.
type AssignmentSource interface {
	AccountIDsFor(ctx context.Context, actorID int64) ([]int64, error)
}

// Scope is the set of accounts an actor may act on. All=true means
// unrestricted (superadmin/admin); otherwise only the listed account ids.
type Scope struct {
	All        bool
	AccountIDs []int64
}

// Contains reports whether the scope covers the given account.
func (s Scope) Contains(accountID int64) bool {
	if s.All {
		return true
	}
	for _, id := range s.AccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// Authorize returns ErrOutOfScope when a direct-by-id access targets an
// account outside the scope. Listing endpoints should instead filter by
// AccountIDs and return an empty collection for an empty scope.
func (s Scope) Authorize(accountID int64) error {
	if !s.Contains(accountID) {
		return shared.ErrOutOfScope
	}
	return nil
}

// Resolver derives an actor's scope from assignment rows. Assignments are
// queried fresh on every call so a removed assignment takes effect on the
// next request, not on the next token refresh.
type Resolver struct {
	assignments AssignmentSource
}

// NewResolver constructs a Resolver.
func NewResolver(assignments AssignmentSource) *Resolver {
	return &Resolver{assignments: assignments}
}

// Resolve computes the scope for the actor.
func (r *Resolver) Resolve(ctx context.Context, actor Actor) (Scope, error) {
	switch actor.Role {
	case RoleSuperadmin, RoleAdmin:
		return Scope{All: true}, nil
	case RoleCSM, RoleUser:
		ids, err := r.assignments.AccountIDsFor(ctx, actor.ID)
		if err != nil {
			return Scope{}, err
		}
		return Scope{AccountIDs: ids}, nil
	default:
		return Scope{}, shared.ErrInsufficientRole
	}
}
