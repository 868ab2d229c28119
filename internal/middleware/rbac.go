package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"stockroom/internal/common"
	"stockroom/internal/models"
)

// RequireRole admits only authenticated callers holding the given role.
// It must run after Authenticate.
func RequireRole(role models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := common.GetIdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if identity.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

// RequireAdmin is shorthand for the admin-only routes.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin)
}
