// Package authz implements the role hierarchy and access scope rules shared
// by every protected endpoint.
package authz

import "fmt"

// Role is one of the four platform roles, totally ordered by rank.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleCSM        Role = "csm"
	RoleUser       Role = "user"
)

var roleRanks = map[Role]int{
	RoleSuperadmin: 4,
	RoleAdmin:      3,
	RoleCSM:        2,
	RoleUser:       1,
}

// impersonationGrants is an explicit lookup table rather than a rank
// comparison: admin may not impersonate admin or superadmin even though
// plain rank rules would suggest otherwise. Keep it a table so the
// exception survives refactors.
var impersonationGrants = map[Role]map[Role]bool{
	RoleSuperadmin: {RoleSuperadmin: true, RoleAdmin: true, RoleCSM: true, RoleUser: true},
	RoleAdmin:      {RoleCSM: true, RoleUser: true},
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if _, ok := roleRanks[role]; !ok {
		return "", fmt.Errorf("authz: unknown role %q", raw)
	}
	return role, nil
}

// Rank returns the fixed integer rank of the role. Unknown roles rank zero,
// below every real role.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// AtLeast reports whether the role's rank meets the required role's rank.
func (r Role) AtLeast(required Role) bool {
	return r.Rank() >= required.Rank()
}

// CanImpersonate reports whether an actor holding actorRole may start an
// impersonation session against targetRole. Self-impersonation is enforced
// separately by the session manager, which knows the actor identities.
func CanImpersonate(actorRole, targetRole Role) bool {
	if !targetRole.Valid() {
		return false
	}
	return impersonationGrants[actorRole][targetRole]
}

// Actor is the authenticated principal attached to a request.
// ImpersonatorID is non-nil exactly when the bearer token is an
// impersonation token.
type Actor struct {
	ID             int64
	Role           Role
	ImpersonatorID *int64
	SessionID      string
}

// IsImpersonated reports whether the actor identity was assumed through an
// impersonation session.
func (a Actor) IsImpersonated() bool {
	return a.ImpersonatorID != nil
}
