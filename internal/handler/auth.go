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
	queue_publisher "github.com/iliyamo/auth-service/internal/service"
)

// AuthHandler bundles dependencies for the credential endpoints.
type AuthHandler struct {
	Sessions *auth.Session
}

func NewAuthHandler(s *auth.Session) *AuthHandler {
	return &AuthHandler{Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Patronymic      *string `json:"patronymic"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Register creates a new account with the default role and returns the
// profile. No token is issued; the client logs in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name/last_name required"})
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if req.Password != req.PasswordConfirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Sessions.Register(ctx, auth.RegisterInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Patronymic: req.Patronymic,
		Email:      req.Email,
		Password:   req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}

	publishAuthEvent(queue.EventRegister, u.ID, u.Email)
	return c.JSON(http.StatusCreated, newUserResp(u))
}

// Login verifies credentials and returns a bearer token. Wrong email,
// wrong password and deactivated account all produce the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	publishAuthEvent(queue.EventLogin, res.User.ID, res.User.Email)
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken: res.Token,
		TokenType:   "bearer",
		ExpiresIn:   res.ExpiresIn,
	})
}

// Logout revokes the presented token. Runs behind the session middleware,
// so the token is known valid here; revoking twice is a no-op.
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := middleware.CurrentToken(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Logout(ctx, token); err != nil {
		return writeError(c, err)
	}

	if u, ok := middleware.CurrentUser(c); ok {
		publishAuthEvent(queue.EventLogout, u.ID, u.Email)
	}
	return c.NoContent(http.StatusNoContent)
}

// publishAuthEvent fires an audit event in the background. Delivery is
// best effort; the request never waits on the broker.
func publishAuthEvent(eventType string, userID uint64, email string) {
	ev := queue.AuthEvent{
		Type:       eventType,
		UserID:     userID,
		Email:      email,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishAuthEvent(ctx, ev)
	}()
}
