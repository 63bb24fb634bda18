package authz

import "testing"

func TestRoleRanks(t *testing.T) {
	roles := []Role{RoleUser, RoleCSM, RoleAdmin, RoleSuperadmin}
	for i, lower := range roles {
		for j, higher := range roles {
			got := higher.AtLeast(lower)
			want := j >= i
			if got != want {
				t.Errorf("AtLeast(%s, %s) = %v, want %v", higher, lower, got, want)
			}
		}
	}
}

func TestRoleRankValues(t *testing.T) {
	cases := map[Role]int{
		RoleSuperadmin: 4,
		RoleAdmin:      3,
		RoleCSM:        2,
		RoleUser:       1,
	}
	for role, want := range cases {
		if got := role.Rank(); got != want {
			t.Errorf("Rank(%s) = %d, want %d", role, got, want)
		}
	}
	if Role("bogus").Rank() != 0 {
		t.Errorf("unknown role should rank zero")
	}
}

func TestParseRole(t *testing.T) {
	if _, err := ParseRole("admin"); err != nil {
		t.Fatalf("parse admin: %v", err)
	}
	if _, err := ParseRole("root"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

// The impersonation matrix is exhaustive on purpose: the admin→admin and
// admin→superadmin denials are the exception to the rank rule and must not
// regress into a plain rank comparison.
func TestCanImpersonate(t *testing.T) {
	roles := []Role{RoleSuperadmin, RoleAdmin, RoleCSM, RoleUser}
	allowed := map[[2]Role]bool{
		{RoleSuperadmin, RoleSuperadmin}: true,
		{RoleSuperadmin, RoleAdmin}:      true,
		{RoleSuperadmin, RoleCSM}:        true,
		{RoleSuperadmin, RoleUser}:       true,
		{RoleAdmin, RoleCSM}:             true,
		{RoleAdmin, RoleUser}:            true,
	}
	for _, actor := range roles {
		for _, target := range roles {
			want := allowed[[2]Role{actor, target}]
			if got := CanImpersonate(actor, target); got != want {
				t.Errorf("CanImpersonate(%s, %s) = %v, want %v", actor, target, got, want)
			}
		}
	}
	if CanImpersonate(RoleSuperadmin, Role("bogus")) {
		t.Errorf("unknown target role must be denied")
	}
}

func TestActorIsImpersonated(t *testing.T) {
	plain := Actor{ID: 1, Role: RoleAdmin}
	if plain.IsImpersonated() {
		t.Fatalf("plain actor should not be impersonated")
	}
	impersonator := int64(25)
	assumed := Actor{ID: 26, Role: RoleCSM, ImpersonatorID: &impersonator, SessionID: "s-1"}
	if !assumed.IsImpersonated() {
		t.Fatalf("actor with impersonator id should be impersonated")
	}
}
