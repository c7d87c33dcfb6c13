package middleware

// identity.go defines helpers shared by middleware and handlers for
// pulling the authenticated principal out of the Echo context after the
// Session middleware has run.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/model"
)

// CurrentUser returns the authenticated user stored by the Session
// middleware. The second return is false when the route was not guarded.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get("user").(model.User)
	return u, ok
}

// CurrentToken returns the stored token record of the current session.
func CurrentToken(c echo.Context) (model.AccessToken, bool) {
	t, ok := c.Get("token").(model.AccessToken)
	return t, ok
}
