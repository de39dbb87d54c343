package access

import (
	"testing"

	"github.com/geocoder89/devdeck/internal/apperr"
)

func TestAuthorize_ProjectMutation(t *testing.T) {
	const owner int64 = 7

	tests := []struct {
		name    string
		caller  Caller
		allowed bool
		kind    apperr.Kind
	}{
		{name: "owner dev", caller: Caller{UserID: owner, Role: RoleDev}, allowed: true},
		{name: "owner recruiter", caller: Caller{UserID: owner, Role: RoleRecruiter}, allowed: true},
		{name: "admin non owner", caller: Caller{UserID: 1, Role: RoleAdmin}, allowed: true},
		{name: "other dev", caller: Caller{UserID: 8, Role: RoleDev}, kind: apperr.KindForbidden},
		{name: "other recruiter", caller: Caller{UserID: 9, Role: RoleRecruiter}, kind: apperr.KindForbidden},
		{name: "unknown role", caller: Caller{UserID: 10, Role: Role("root")}, kind: apperr.KindForbidden},
		{name: "anonymous", caller: Anonymous(), kind: apperr.KindUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		for _, action := range []Action{ActionUpdateProject, ActionDeleteProject} {
			t.Run(tt.name+"/"+string(action), func(t *testing.T) {
				d := Authorize(tt.caller, action, Owned(owner))

				if d.Allowed() != tt.allowed {
					t.Fatalf("allowed=%v, want %v (reason=%q)", d.Allowed(), tt.allowed, d.Reason())
				}
				if tt.allowed {
					if d.Err() != nil {
						t.Fatalf("expected nil error, got %v", d.Err())
					}
					return
				}
				if got := apperr.KindOf(d.Err()); got != tt.kind {
					t.Fatalf("kind=%q, want %q", got, tt.kind)
				}
			})
		}
	}
}

func TestAuthorize_AnonymousActions(t *testing.T) {
	for _, a := range []Action{ActionRegister, ActionLogin, ActionListProjects, ActionViewProject, ActionViewPortfolio} {
		if !Authorize(Anonymous(), a, Resource{}).Allowed() {
			t.Fatalf("anonymous should be allowed to %s", a)
		}
	}

	for _, a := range []Action{ActionReadOwnProfile, ActionCreateProject, ActionSendMessage, ActionSearchTalent} {
		d := Authorize(Anonymous(), a, Resource{})
		if d.Allowed() {
			t.Fatalf("anonymous should not be allowed to %s", a)
		}
		if !apperr.Is(d.Err(), apperr.KindUnauthorized) {
			t.Fatalf("expected unauthorized for %s, got %v", a, d.Err())
		}
	}
}

func TestAuthorize_AdminOnly(t *testing.T) {
	admin := Caller{UserID: 1, Role: RoleAdmin}
	dev := Caller{UserID: 2, Role: RoleDev}

	actions := []Action{
		ActionAdminAccess,
		ActionAdminListUsers,
		ActionAdminDeleteUser,
		ActionAdminUpdateRole,
		ActionAdminListProjects,
		ActionAdminManageProjects,
	}

	for _, a := range actions {
		if !Authorize(admin, a, Resource{}).Allowed() {
			t.Fatalf("admin should be allowed to %s", a)
		}

		// ownership never grants admin-only actions
		d := Authorize(dev, a, Owned(dev.UserID))
		if d.Allowed() {
			t.Fatalf("dev should not be allowed to %s", a)
		}
		if !apperr.Is(d.Err(), apperr.KindForbidden) {
			t.Fatalf("expected forbidden for %s, got %v", a, d.Err())
		}
	}
}

func TestValidateRoleAssignment(t *testing.T) {
	for _, ok := range []string{"admin", "dev", " Dev "} {
		if _, err := ValidateRoleAssignment(ok); err != nil {
			t.Fatalf("%q should be assignable: %v", ok, err)
		}
	}
	if r, _ := ValidateRoleAssignment(" Dev "); r != RoleDev {
		t.Fatalf("role=%q, want %q", r, RoleDev)
	}

	for _, bad := range []string{"recruiter", "root", ""} {
		_, err := ValidateRoleAssignment(bad)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("%q: expected validation error, got %v", bad, err)
		}
	}
}

func TestRegistrationRole(t *testing.T) {
	cases := map[string]Role{
		"":          RoleDev,
		"dev":       RoleDev,
		"recruiter": RoleRecruiter,
		"admin":     RoleDev,
		"whatever":  RoleDev,
	}
	for in, want := range cases {
		if got := RegistrationRole(in); got != want {
			t.Fatalf("RegistrationRole(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestVisibility(t *testing.T) {
	if Visibility(Anonymous(), 3) != ViewPublic {
		t.Fatalf("anonymous must get the public view")
	}
	if Visibility(Caller{UserID: 3, Role: RoleDev}, 3) != ViewPrivate {
		t.Fatalf("self must get the private view")
	}
	if Visibility(Caller{UserID: 4, Role: RoleRecruiter}, 3) != ViewPublic {
		t.Fatalf("other users must get the public view")
	}
	if Visibility(Caller{UserID: 1, Role: RoleAdmin}, 3) != ViewPrivate {
		t.Fatalf("admin must get the private view")
	}
}
