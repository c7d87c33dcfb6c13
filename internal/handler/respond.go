package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/auth"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// ----- shared response DTOs -----

type userResp struct {
	ID         uint64   `json:"id"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Patronymic *string  `json:"patronymic,omitempty"`
	Email      string   `json:"email"`
	IsActive   bool     `json:"is_active"`
	Roles      []string `json:"roles"`
}

type permResp struct {
	ID          uint64  `json:"id"`
	Code        string  `json:"code"`
	Description *string `json:"description,omitempty"`
}

type roleResp struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Permissions []permResp `json:"permissions"`
}

func newUserResp(u model.User) userResp {
	return userResp{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Patronymic: u.Patronymic,
		Email:      u.Email,
		IsActive:   u.IsActive,
		Roles:      u.RoleNames(),
	}
}

func newRoleResp(r model.Role) roleResp {
	perms := make([]permResp, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, permResp{ID: p.ID, Code: p.Code, Description: p.Description})
	}
	return roleResp{ID: r.ID, Name: r.Name, Description: r.Description, Permissions: perms}
}

// writeError maps service and repository errors onto HTTP statuses. Every
// handler funnels its unexpected errors through here so the mapping stays
// in one place.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, repository.ErrRoleExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "role already exists"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenRevoked),
		errors.Is(err, auth.ErrUserInactive):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, auth.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, auth.ErrReservedRole):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "admin role cannot be deleted"})
	case errors.Is(err, auth.ErrUnknownPermissionCodes),
		errors.Is(err, auth.ErrUnknownRoleIDs):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// pathID parses a numeric :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
