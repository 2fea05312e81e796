package auth

import "strings"

// RolePrefix is prepended to a role to build the authority checked by
// route guards
const RolePrefix = "ROLE_"

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole parses a role name ignoring case and returns the canonical form
func ParseRole(roleStr string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(roleStr)))
	return role, IsValidRole(role)
}

// Authority returns the authority string for a role
func Authority(r Role) string {
	return RolePrefix + r
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleUser,
	}
}

// MatchesPortal reports whether the account role is the one a login
// portal expects. Comparison ignores case.
func MatchesPortal(accountRole, requiredRole Role) bool {
	return strings.EqualFold(accountRole, requiredRole)
}
