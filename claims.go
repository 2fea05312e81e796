package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated identity carried by a session token
type Principal struct {
	Subject    string `json:"sub"`
	Role       Role   `json:"role"`
	EmployeeID *int64 `json:"employeeId"`
}

// Authority returns the role scoped authority, e.g. ROLE_ADMIN
func (p Principal) Authority() string {
	return Authority(p.Role)
}

// Authorities returns every authority granted to the principal
func (p Principal) Authorities() []string {
	return []string{p.Authority()}
}

// HasRole checks if the principal was granted the given role
func (p Principal) HasRole(role Role) bool {
	return p.Authority() == Authority(role)
}

// HasAnyRole checks if the principal was granted one of the roles
func (p Principal) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

// SessionClaims is the JWT payload of a session token
type SessionClaims struct {
	jwt.RegisteredClaims
	Role       Role   `json:"role"`
	EmployeeID *int64 `json:"employeeId"`
}

// Principal returns the identity embedded in the claims
func (c *SessionClaims) Principal() Principal {
	var employeeID *int64
	if c.EmployeeID != nil {
		id := *c.EmployeeID
		employeeID = &id
	}
	return Principal{
		Subject:    c.Subject,
		Role:       c.Role,
		EmployeeID: employeeID,
	}
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
