package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/auth"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
)

// UserHandler serves the profile endpoints and the administrative user
// directory.
type UserHandler struct {
	Sessions *auth.Session
	Access   *auth.RBAC
}

func NewUserHandler(s *auth.Session, r *auth.RBAC) *UserHandler {
	return &UserHandler{Sessions: s, Access: r}
}

type updateProfileReq struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Patronymic *string `json:"patronymic"`
	Email      *string `json:"email"`
}

type adminUpdateUserReq struct {
	FirstName  *string  `json:"first_name"`
	LastName   *string  `json:"last_name"`
	Patronymic *string  `json:"patronymic"`
	Email      *string  `json:"email"`
	IsActive   *bool    `json:"is_active"`
	RoleIDs    []uint64 `json:"role_ids"`
}

// Me returns the caller's profile together with role names and the
// permission set resolved fresh from the role graph.
func (h *UserHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Sessions.Profile(ctx, u.ID)
	if err != nil {
		return writeError(c, err)
	}
	permSet, err := h.Access.EffectivePermissions(ctx, u.ID)
	if err != nil {
		return writeError(c, err)
	}
	perms := make([]string, 0, len(permSet))
	for code := range permSet {
		perms = append(perms, code)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":        newUserResp(profile),
		"permissions": perms,
	})
}

// UpdateMe applies a partial profile update to the caller's own account.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Sessions.UpdateProfile(ctx, u.ID, repository.UserUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Patronymic: req.Patronymic,
		Email:      normalizeEmail(req.Email),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newUserResp(profile))
}

// DeleteMe deactivates the caller's own account and revokes every one of
// their tokens, the presented one included.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Deactivate(ctx, u.ID); err != nil {
		return writeError(c, err)
	}
	publishAuthEvent(queue.EventDeactivate, u.ID, u.Email)
	return c.NoContent(http.StatusNoContent)
}

// List returns the full user directory with roles loaded.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Sessions.ListUsers(ctx)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

// AdminUpdate applies an administrative update to any user: profile
// fields, activation state and the role assignment. Unknown role ids
// reject the whole request before anything changes. Setting is_active to
// false also revokes the user's tokens.
func (h *UserHandler) AdminUpdate(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adminUpdateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	upd := repository.UserUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Patronymic: req.Patronymic,
		Email:      normalizeEmail(req.Email),
	}
	if req.IsActive != nil && *req.IsActive {
		upd.IsActive = req.IsActive
	}
	// Profile fields and the role assignment commit or roll back together.
	profile, err := h.Access.AdminUpdateUser(ctx, id, upd, req.RoleIDs)
	if err != nil {
		return writeError(c, err)
	}

	// Deactivation goes through the session authority so every token of
	// the user is revoked in the same transaction.
	if req.IsActive != nil && !*req.IsActive {
		if err := h.Sessions.Deactivate(ctx, id); err != nil {
			return writeError(c, err)
		}
		profile, err = h.Sessions.Profile(ctx, id)
		if err != nil {
			return writeError(c, err)
		}
		publishAuthEvent(queue.EventDeactivate, profile.ID, profile.Email)
	}
	return c.JSON(http.StatusOK, newUserResp(profile))
}

// AdminDelete soft-deletes a user: the account is deactivated and all of
// its tokens revoked. The row itself is kept.
func (h *UserHandler) AdminDelete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Sessions.Profile(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Sessions.Deactivate(ctx, id); err != nil {
		return writeError(c, err)
	}
	publishAuthEvent(queue.EventDeactivate, profile.ID, profile.Email)
	return c.NoContent(http.StatusNoContent)
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	lowered := strings.ToLower(strings.TrimSpace(*email))
	return &lowered
}
