package access

import (
	"strings"

	"github.com/geocoder89/devdeck/internal/apperr"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDev       Role = "dev"
	RoleRecruiter Role = "recruiter"
)

// ParseRole accepts only the closed set of roles.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleDev:
		return RoleDev, true
	case RoleRecruiter:
		return RoleRecruiter, true
	default:
		return "", false
	}
}

func (r Role) String() string {
	return string(r)
}

// RegistrationRole picks the role for a self-registered account.
// Only recruiter may be requested; everything else becomes dev.
func RegistrationRole(requested string) Role {
	r, ok := ParseRole(requested)
	if ok && r == RoleRecruiter {
		return RoleRecruiter
	}
	return RoleDev
}

// ValidateRoleAssignment checks the target of an admin role change.
// Recruiter is a self-registration role and cannot be assigned.
func ValidateRoleAssignment(s string) (Role, error) {
	r, ok := ParseRole(s)
	if !ok || (r != RoleAdmin && r != RoleDev) {
		return "", apperr.Validation("invalid_role", "role must be one of admin, dev")
	}
	return r, nil
}
