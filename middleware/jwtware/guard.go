package jwtware

import (
	"github.com/gofiber/fiber/v2"

	auth "github.com/goliatone/go-ems-auth"
)

// GetPrincipal returns the principal attached by New, if any
func GetPrincipal(c *fiber.Ctx, key ...string) (auth.Principal, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	p, ok := c.Locals(k).(auth.Principal)
	return p, ok
}

// RequireAuthenticated rejects anonymous requests with 401
func RequireAuthenticated(key ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := GetPrincipal(c, key...); !ok {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	}
}

// RequireRoles rejects anonymous requests with 401 and principals
// holding none of roles with 403
func RequireRoles(roles ...auth.Role) fiber.Handler {
	return RequireRolesWithKey(DefaultContextKey, roles...)
}

// RequireRolesWithKey is RequireRoles for a custom locals key
func RequireRolesWithKey(key string, roles ...auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := GetPrincipal(c, key)
		if !ok {
			return fiber.ErrUnauthorized
		}
		if !p.HasAnyRole(roles...) {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}
