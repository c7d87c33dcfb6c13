package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/middleware"
)

// ResourceHandler serves the demo resources used to exercise the
// permission middleware end to end. The payloads are static; the point of
// these endpoints is the guard in front of them.
type ResourceHandler struct{}

func NewResourceHandler() *ResourceHandler {
	return &ResourceHandler{}
}

// ListProjects is gated by view_projects, which every registered user
// holds through the default role.
func (h *ResourceHandler) ListProjects(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"projects": []echo.Map{
			{"id": 1, "name": "Atlas", "status": "active"},
			{"id": 2, "name": "Borealis", "status": "archived"},
		},
	})
}

// EditProject is gated by edit_projects.
func (h *ResourceHandler) EditProject(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	u, _ := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{
		"project_id": id,
		"updated_by": u.Email,
		"status":     "updated",
	})
}

// ListReports is gated by view_reports.
func (h *ResourceHandler) ListReports(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"reports": []echo.Map{
			{"id": 1, "title": "Quarterly usage"},
			{"id": 2, "title": "Access review"},
		},
	})
}
