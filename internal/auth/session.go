package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/utils"
)

// SessionConfig carries the process-wide settings the session authority
// needs. It is constructed once at startup and read-only afterwards.
type SessionConfig struct {
	JWTSecret  string        // symmetric signing secret
	TokenTTL   time.Duration // access token lifetime
	BcryptCost int           // work factor for password hashing
}

// Session is the session authority. It orchestrates credential
// verification, token minting, per-request authentication and revocation.
// A token is in its derived Active state iff now < expires_at and the
// stored record is not revoked; both the signed claims and the record are
// checked on every request.
type Session struct {
	cfg    SessionConfig
	users  UserStore
	roles  RoleStore
	tokens TokenStore
}

func NewSession(cfg SessionConfig, users UserStore, roles RoleStore, tokens TokenStore) *Session {
	return &Session{cfg: cfg, users: users, roles: roles, tokens: tokens}
}

// RegisterInput carries the profile fields and plaintext password of a
// registration request. Validation of formats and lengths happens at the
// transport layer.
type RegisterInput struct {
	FirstName  string
	LastName   string
	Patronymic *string
	Email      string
	Password   string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	ExpiresIn int64 // remaining lifetime in seconds, floored at zero
	User      model.User
}

// Register creates a new user with the default role assigned. A taken
// email yields repository.ErrEmailExists; a missing default role yields
// ErrDefaultRoleMissing.
func (s *Session) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return model.User{}, repository.ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}

	defaultRole, err := s.roles.GetByName(ctx, model.DefaultRoleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrDefaultRoleMissing
		}
		return model.User{}, err
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}

	u := model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Patronymic:   in.Patronymic,
		Email:        in.Email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &u, []uint64{defaultRole.ID}); err != nil {
		return model.User{}, err
	}
	return s.users.GetWithRoles(ctx, u.ID)
}

// Login verifies the credentials and mints a new access token. The user's
// current role names are embedded as a claim snapshot; later role changes
// do not alter already-issued claims, only revocation can end a session
// early. Wrong email, wrong password and inactive account all yield
// ErrInvalidCredentials.
func (s *Session) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !u.IsActive {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	u, err = s.users.GetWithRoles(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}

	at, err := utils.NewAccessToken(s.cfg.JWTSecret,
		strconv.FormatUint(u.ID, 10), s.cfg.TokenTTL,
		map[string]any{"roles": u.RoleNames()})
	if err != nil {
		return LoginResult{}, err
	}

	record := model.AccessToken{UserID: u.ID, Token: at.Token, ExpiresAt: at.Exp}
	if err := s.tokens.Store(ctx, &record); err != nil {
		return LoginResult{}, err
	}

	expiresIn := int64(time.Until(at.Exp).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	return LoginResult{Token: at.Token, ExpiresIn: expiresIn, User: u}, nil
}

// Authenticate resolves a bearer token into its owner. Three ordered
// checks are all mandatory: the signed claims must decode (cheap check
// first, before any database round-trip), a non-revoked stored record must
// match the raw string, and the owning user must exist and be active.
func (s *Session) Authenticate(ctx context.Context, raw string) (model.User, model.AccessToken, error) {
	if _, err := utils.DecodeAccessToken(s.cfg.JWTSecret, raw); err != nil {
		return model.User{}, model.AccessToken{}, ErrTokenInvalid
	}

	record, err := s.tokens.FindActive(ctx, raw)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, model.AccessToken{}, ErrTokenRevoked
		}
		return model.User{}, model.AccessToken{}, err
	}

	u, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, model.AccessToken{}, ErrUserInactive
		}
		return model.User{}, model.AccessToken{}, err
	}
	if !u.IsActive {
		return model.User{}, model.AccessToken{}, ErrUserInactive
	}
	return u, record, nil
}

// Logout revokes the stored token record. Logging out an already revoked
// token is a no-op success.
func (s *Session) Logout(ctx context.Context, token model.AccessToken) error {
	return s.tokens.Revoke(ctx, token.ID)
}

// Deactivate flips the user inactive and revokes all of their tokens in
// one atomic update.
func (s *Session) Deactivate(ctx context.Context, userID uint64) error {
	return s.users.Deactivate(ctx, userID)
}

// Profile returns the user with roles and permissions loaded.
func (s *Session) Profile(ctx context.Context, userID uint64) (model.User, error) {
	return s.users.GetWithRoles(ctx, userID)
}

// UpdateProfile applies a partial profile update and returns the fresh
// record.
func (s *Session) UpdateProfile(ctx context.Context, userID uint64, upd repository.UserUpdate) (model.User, error) {
	if err := s.users.Update(ctx, userID, upd); err != nil {
		return model.User{}, err
	}
	return s.users.GetWithRoles(ctx, userID)
}

// ListUsers returns all users with their roles loaded.
func (s *Session) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}
