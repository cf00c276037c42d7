// internal/domain/models/account.go
package models

import "strings"

// Role is an account's capability tier. The string values are the labels the
// remote service uses on the wire.
type Role string

const (
	RolePrimaryAdmin Role = "ANDREI"
	RoleRecruiter    Role = "DAEMON"
	RoleSubordinate  Role = "NETWORK_ADMIN"
)

// Roles returns the closed set of roles in display order.
func Roles() []Role {
	return []Role{RolePrimaryAdmin, RoleRecruiter, RoleSubordinate}
}

// ParseRole upper-cases and trims s. The second result reports whether the
// value is one of the known roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePrimaryAdmin, RoleRecruiter, RoleSubordinate:
		return true
	}
	return false
}

// Label is the human-facing name shown on dashboards.
func (r Role) Label() string {
	switch r {
	case RolePrimaryAdmin:
		return "Primary admin"
	case RoleRecruiter:
		return "Recruiter"
	case RoleSubordinate:
		return "Subordinate"
	}
	return string(r)
}

func (r Role) String() string { return string(r) }

// Account is a registered identity as seen by the panel. IDs are always the
// canonical string form produced by the normalizer.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
