// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/middleware"
)

// Handlers groups everything RegisterRoutes needs to build the API
// surface.
type Handlers struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	RBAC      *handler.RBACHandler
	Resources *handler.ResourceHandler

	Session   echo.MiddlewareFunc // bearer authentication
	RateLimit echo.MiddlewareFunc // throttle on the credential endpoints
	Guard     middleware.PermissionChecker
}

// RegisterRoutes registers the full route table.
//
// Unauthenticated endpoints live under /v1/auth and are rate limited.
// Everything else runs behind the session middleware, with per-route
// permission requirements resolved fresh from the role graph on every
// request.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)

	creds := e.Group("/v1/auth", h.RateLimit)
	creds.POST("/register", h.Auth.Register)
	creds.POST("/login", h.Auth.Login)
	// Logout needs the session to know which token record to revoke.
	e.POST("/v1/auth/logout", h.Auth.Logout, h.Session)

	v1 := e.Group("/v1", h.Session)

	// Profile surface, no permission required beyond a live session.
	v1.GET("/users/me", h.Users.Me)
	v1.PATCH("/users/me", h.Users.UpdateMe)
	v1.DELETE("/users/me", h.Users.DeleteMe)

	// User directory and administration.
	v1.GET("/users", h.Users.List, middleware.RequirePermissions(h.Guard, "view_users"))
	v1.PATCH("/users/:id", h.Users.AdminUpdate, middleware.RequirePermissions(h.Guard, "manage_users"))
	v1.DELETE("/users/:id", h.Users.AdminDelete, middleware.RequirePermissions(h.Guard, "manage_users"))

	// Role and permission administration.
	admin := v1.Group("/admin", middleware.RequirePermissions(h.Guard, "manage_roles"))
	admin.GET("/permissions", h.RBAC.ListPermissions)
	admin.GET("/roles", h.RBAC.ListRoles)
	admin.GET("/roles/:id", h.RBAC.GetRole)
	admin.POST("/roles", h.RBAC.CreateRole)
	admin.PATCH("/roles/:id", h.RBAC.UpdateRole)
	admin.DELETE("/roles/:id", h.RBAC.DeleteRole)

	// Demo resources exercising per-route permission checks.
	v1.GET("/resources/projects", h.Resources.ListProjects,
		middleware.RequirePermissions(h.Guard, "view_projects"))
	v1.PUT("/resources/projects/:id", h.Resources.EditProject,
		middleware.RequirePermissions(h.Guard, "edit_projects"))
	v1.GET("/resources/reports", h.Resources.ListReports,
		middleware.RequirePermissions(h.Guard, "view_reports"))
}
