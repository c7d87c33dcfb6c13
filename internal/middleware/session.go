package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/auth"
	"github.com/iliyamo/auth-service/internal/model"
)

// Authenticator resolves a raw bearer token into its owner and the stored
// token record. It is satisfied by *auth.Session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, model.AccessToken, error)
}

// Session returns an Echo middleware that requires a valid Bearer token
// and injects the authenticated user and token record into the request
// context. Handlers access them via CurrentUser and CurrentToken. All
// authentication failures answer 401; the body distinguishes the internal
// reason (invalid vs revoked vs inactive) for diagnostics but never which
// credential check failed.
func Session(s Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			user, record, err := s.Authenticate(c.Request().Context(), raw)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenInvalid),
					errors.Is(err, auth.ErrTokenRevoked),
					errors.Is(err, auth.ErrUserInactive):
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
				default:
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authentication failed"})
				}
			}

			c.Set("user", user)
			c.Set("token", record)
			// string form used by the rate limiter key builder
			c.Set("user_id", strconv.FormatUint(user.ID, 10))
			return next(c)
		}
	}
}
