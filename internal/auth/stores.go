package auth

import (
	"context"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// The store interfaces mirror the repository types in internal/repository;
// the services accept them as interfaces so tests can substitute in-memory
// fakes. Implementations must keep each mutating call atomic: either all
// of its writes commit or none do.

// UserStore persists users and their role assignments.
type UserStore interface {
	Create(ctx context.Context, u *model.User, roleIDs []uint64) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetWithRoles(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, upd repository.UserUpdate) error
	UpdateWithRoles(ctx context.Context, id uint64, upd repository.UserUpdate, roleIDs []uint64) error
	Deactivate(ctx context.Context, id uint64) error
	ReplaceRoles(ctx context.Context, userID uint64, roleIDs []uint64) error
}

// RoleStore persists roles and their permission links.
type RoleStore interface {
	List(ctx context.Context) ([]model.Role, error)
	GetByID(ctx context.Context, id uint64) (model.Role, error)
	GetByName(ctx context.Context, name string) (model.Role, error)
	GetByIDs(ctx context.Context, ids []uint64) ([]model.Role, error)
	Create(ctx context.Context, role *model.Role, permissionIDs []uint64) error
	Update(ctx context.Context, id uint64, upd repository.RoleUpdate) error
	Delete(ctx context.Context, id uint64) error
}

// PermissionStore reads the permission catalogue.
type PermissionStore interface {
	List(ctx context.Context) ([]model.Permission, error)
	GetByCodes(ctx context.Context, codes []string) ([]model.Permission, error)
	ListForUser(ctx context.Context, userID uint64) ([]string, error)
}

// TokenStore persists issued access tokens.
type TokenStore interface {
	Store(ctx context.Context, t *model.AccessToken) error
	FindActive(ctx context.Context, token string) (model.AccessToken, error)
	Revoke(ctx context.Context, id uint64) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}
