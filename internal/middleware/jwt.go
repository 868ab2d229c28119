package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"stockroom/internal/common"
	"stockroom/internal/services"
)

// Authenticate validates the bearer token and stores the caller identity
// in the request context. A missing or invalid token denies the request;
// the auth service returns nil for anything it cannot verify.
func Authenticate(authSvc services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			identity := authSvc.Authorize(c.Request().Context(), token)
			if identity == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			ctx := common.WithIdentity(c.Request().Context(), *identity)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
