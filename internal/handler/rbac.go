package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/auth"
)

// RBACHandler exposes the role and permission administration surface.
type RBACHandler struct {
	Access *auth.RBAC
}

func NewRBACHandler(r *auth.RBAC) *RBACHandler {
	return &RBACHandler{Access: r}
}

type createRoleReq struct {
	Name            string   `json:"name"`
	Description     *string  `json:"description"`
	PermissionCodes []string `json:"permission_codes"`
}

type updateRoleReq struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	PermissionCodes []string `json:"permission_codes"`
}

// ListPermissions returns the full permission catalogue.
func (h *RBACHandler) ListPermissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	perms, err := h.Access.ListPermissions(ctx)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]permResp, 0, len(perms))
	for _, p := range perms {
		out = append(out, permResp{ID: p.ID, Code: p.Code, Description: p.Description})
	}
	return c.JSON(http.StatusOK, out)
}

// ListRoles returns every role with its permission set.
func (h *RBACHandler) ListRoles(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	roles, err := h.Access.ListRoles(ctx)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]roleResp, 0, len(roles))
	for _, r := range roles {
		out = append(out, newRoleResp(r))
	}
	return c.JSON(http.StatusOK, out)
}

// GetRole returns a single role by id.
func (h *RBACHandler) GetRole(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Access.GetRole(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newRoleResp(role))
}

// CreateRole creates a role holding exactly the named permissions. A
// single unknown code rejects the whole request; no role row is created.
func (h *RBACHandler) CreateRole(c echo.Context) error {
	var req createRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Access.CreateRole(ctx, req.Name, req.Description, req.PermissionCodes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, newRoleResp(role))
}

// UpdateRole applies a partial update. When permission_codes is present
// the role's permission set is replaced with the resolved set; when it is
// absent the links are kept as they are.
func (h *RBACHandler) UpdateRole(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Access.UpdateRole(ctx, id, req.Name, req.Description, req.PermissionCodes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newRoleResp(role))
}

// DeleteRole removes a role. Users who held it keep any permission still
// granted through their remaining roles. The admin role is refused.
func (h *RBACHandler) DeleteRole(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Access.DeleteRole(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
