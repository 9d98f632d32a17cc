package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// Permissions are flat strings scoped by resource, e.g. "run.create" or
// "telemetry.view". "run.view:all" widens "run.view" beyond the caller's own
// runs; routes that accept either attach RequireAnyPermission.

func IsAdmin(user *AppUser) bool {
	return user != nil && user.Role == "admin"
}

// HasPermission reports whether the user carries the permission. The admin
// role implies every permission.
func HasPermission(user *AppUser, permission string) bool {
	if user == nil {
		return false
	}
	if IsAdmin(user) {
		return true
	}
	return slices.Contains(user.Permissions, permission)
}

func HasAnyPermission(user *AppUser, permissions ...string) bool {
	for _, permission := range permissions {
		if HasPermission(user, permission) {
			return true
		}
	}
	return false
}

func guard(allowed func(*AppUser) bool, denied string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			if !allowed(user) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": denied})
			}
			return next(c)
		}
	}
}

func RequirePermission(permission string) echo.MiddlewareFunc {
	return guard(
		func(u *AppUser) bool { return HasPermission(u, permission) },
		"Forbidden: missing permission "+permission,
	)
}

func RequireAnyPermission(permissions ...string) echo.MiddlewareFunc {
	return guard(
		func(u *AppUser) bool { return HasAnyPermission(u, permissions...) },
		"Forbidden: missing required permission",
	)
}
