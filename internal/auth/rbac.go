package auth

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// RBAC owns the role/permission graph and its resolution algorithm. A
// user's capabilities are the union of the permission sets of all assigned
// roles, so they are strictly additive: removing one role never removes a
// permission still granted by another.
//
// Every mutating operation validates its referenced ids or codes before
// touching storage; a partial assignment is never observable.
type RBAC struct {
	users UserStore
	roles RoleStore
	perms PermissionStore
}

func NewRBAC(users UserStore, roles RoleStore, perms PermissionStore) *RBAC {
	return &RBAC{users: users, roles: roles, perms: perms}
}

// EffectivePermissions computes the set of permission codes the user holds
// through all assigned roles, resolved fresh from storage. Token claims
// are never consulted here.
func (r *RBAC) EffectivePermissions(ctx context.Context, userID uint64) (map[string]struct{}, error) {
	codes, err := r.perms.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set, nil
}

// ListRoles returns every role with its permissions.
func (r *RBAC) ListRoles(ctx context.Context) ([]model.Role, error) {
	return r.roles.List(ctx)
}

// ListPermissions returns the full permission catalogue.
func (r *RBAC) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return r.perms.List(ctx)
}

// GetRole returns a single role with its permissions.
func (r *RBAC) GetRole(ctx context.Context, id uint64) (model.Role, error) {
	return r.roles.GetByID(ctx, id)
}

// CreateRole creates a role holding exactly the permissions named by
// codes. Unknown codes are rejected before anything is persisted; no role
// row exists afterwards in that case.
func (r *RBAC) CreateRole(ctx context.Context, name string, description *string, codes []string) (model.Role, error) {
	perms, err := r.resolvePermissionCodes(ctx, codes)
	if err != nil {
		return model.Role{}, err
	}

	role := model.Role{Name: name, Description: description, Permissions: perms}
	if err := r.roles.Create(ctx, &role, permissionIDs(perms)); err != nil {
		return model.Role{}, err
	}
	return role, nil
}

// UpdateRole applies a partial update. When codes is non-nil the role's
// permission set is replaced — not merged — with the resolved set; unknown
// codes abort the whole update before any mutation.
func (r *RBAC) UpdateRole(ctx context.Context, id uint64, name, description *string, codes []string) (model.Role, error) {
	if _, err := r.roles.GetByID(ctx, id); err != nil {
		return model.Role{}, err
	}

	upd := repository.RoleUpdate{Name: name, Description: description}
	if codes != nil {
		perms, err := r.resolvePermissionCodes(ctx, codes)
		if err != nil {
			return model.Role{}, err
		}
		ids := permissionIDs(perms)
		if ids == nil {
			ids = []uint64{}
		}
		upd.PermissionIDs = ids
	}

	if err := r.roles.Update(ctx, id, upd); err != nil {
		return model.Role{}, err
	}
	return r.roles.GetByID(ctx, id)
}

// DeleteRole removes a role and cascades its membership links, leaving
// users and permissions intact. The reserved admin role is never
// deletable.
func (r *RBAC) DeleteRole(ctx context.Context, id uint64) error {
	role, err := r.roles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role.Name == model.AdminRoleName {
		return ErrReservedRole
	}
	return r.roles.Delete(ctx, id)
}

// AssignRolesToUser replaces the user's role set with exactly the given
// ids. Unknown ids are rejected before any mutation, so the previous
// assignment stays observable on error.
func (r *RBAC) AssignRolesToUser(ctx context.Context, userID uint64, roleIDs []uint64) error {
	if _, err := r.users.GetByID(ctx, userID); err != nil {
		return err
	}

	validated, err := r.validateRoleIDs(ctx, roleIDs)
	if err != nil {
		return err
	}
	return r.users.ReplaceRoles(ctx, userID, validated)
}

// AdminUpdateUser applies an administrative update to a user: a partial
// profile update and, when roleIDs is non-nil, a replace of the role set.
// The two land in one store transaction, so a rejected email change never
// leaves a changed role assignment behind, and vice versa. Unknown role
// ids abort before anything is written.
func (r *RBAC) AdminUpdateUser(ctx context.Context, userID uint64, upd repository.UserUpdate, roleIDs []uint64) (model.User, error) {
	if _, err := r.users.GetByID(ctx, userID); err != nil {
		return model.User{}, err
	}

	validated := roleIDs
	if roleIDs != nil {
		var err error
		if validated, err = r.validateRoleIDs(ctx, roleIDs); err != nil {
			return model.User{}, err
		}
	}

	if err := r.users.UpdateWithRoles(ctx, userID, upd, validated); err != nil {
		return model.User{}, err
	}
	return r.users.GetWithRoles(ctx, userID)
}

// validateRoleIDs resolves the ids against the roles table and returns the
// deduplicated set, failing with ErrUnknownRoleIDs naming every absent id.
func (r *RBAC) validateRoleIDs(ctx context.Context, roleIDs []uint64) ([]uint64, error) {
	found, err := r.roles.GetByIDs(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	unique := uniqueIDs(roleIDs)
	if len(found) != len(unique) {
		known := make(map[uint64]struct{}, len(found))
		for _, role := range found {
			known[role.ID] = struct{}{}
		}
		var missing []string
		for _, id := range unique {
			if _, ok := known[id]; !ok {
				missing = append(missing, strconv.FormatUint(id, 10))
			}
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoleIDs, strings.Join(missing, ", "))
	}
	return unique, nil
}

// resolvePermissionCodes maps codes to permission rows, failing with
// ErrUnknownPermissionCodes when any code is absent from the catalogue.
func (r *RBAC) resolvePermissionCodes(ctx context.Context, codes []string) ([]model.Permission, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	perms, err := r.perms.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		known[p.Code] = struct{}{}
	}
	var missing []string
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		if _, ok := known[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrUnknownPermissionCodes, strings.Join(missing, ", "))
	}
	return perms, nil
}

func permissionIDs(perms []model.Permission) []uint64 {
	if len(perms) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	return ids
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
