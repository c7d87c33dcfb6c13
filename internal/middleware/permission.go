package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/auth"
)

// PermissionChecker decides whether a user holds every required
// permission code. It is satisfied by *auth.Guard.
type PermissionChecker interface {
	RequirePermissions(ctx context.Context, userID uint64, required ...string) error
}

// RequirePermissions returns a middleware that enforces that the
// authenticated user holds all of the given permission codes. The check
// resolves the effective permission set from storage on every request —
// token claims and earlier results are never consulted — so role changes
// take effect immediately. A missing code aborts the request with 403;
// the response names the denied operation implicitly but never the
// missing permission. It assumes the Session middleware ran earlier.
func RequirePermissions(g PermissionChecker, codes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if err := g.RequirePermissions(c.Request().Context(), user.ID, codes...); err != nil {
				if errors.Is(err, auth.ErrPermissionDenied) {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authorization failed"})
			}
			return next(c)
		}
	}
}
