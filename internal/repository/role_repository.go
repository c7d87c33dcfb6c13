package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/auth-service/internal/model"
)

// RoleRepo provides CRUD operations for roles and their permission links.
// Deleting the reserved admin role is rejected by the RBAC service before
// any call reaches this repository; the database constraints are only the
// second line of defense.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// RoleUpdate carries a partial update of a role row. Nil fields are left
// untouched. PermissionIDs replaces the full permission set when non-nil.
type RoleUpdate struct {
	Name          *string
	Description   *string
	PermissionIDs []uint64
}

const roleColumns = "id, name, description, created_at, updated_at"

func scanRole(row *sql.Row) (model.Role, error) {
	var (
		role model.Role
		desc sql.NullString
	)
	err := row.Scan(&role.ID, &role.Name, &desc, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Role{}, ErrNotFound
		}
		return model.Role{}, err
	}
	if desc.Valid {
		d := desc.String
		role.Description = &d
	}
	return role, nil
}

// List returns every role with its permissions loaded.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+roleColumns+" FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var (
			role model.Role
			desc sql.NullString
		)
		if err := rows.Scan(&role.ID, &role.Name, &desc, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			role.Description = &d
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		perms, err := permissionsForRole(ctx, r.DB, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

// GetByID fetches a role with its permissions loaded.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (model.Role, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE id=? LIMIT 1", id)
	role, err := scanRole(row)
	if err != nil {
		return model.Role{}, err
	}
	perms, err := permissionsForRole(ctx, r.DB, role.ID)
	if err != nil {
		return model.Role{}, err
	}
	role.Permissions = perms
	return role, nil
}

// GetByName fetches a role by its unique name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (model.Role, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE name=? LIMIT 1", name)
	return scanRole(row)
}

// GetByIDs returns the roles matching the given ids. Missing ids are not
// an error here; the caller compares lengths to detect unknown ids before
// mutating anything.
func (r *RoleRepo) GetByIDs(ctx context.Context, ids []uint64) ([]model.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE id IN ("+placeholders+") ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var (
			role model.Role
			desc sql.NullString
		)
		if err := rows.Scan(&role.ID, &role.Name, &desc, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			role.Description = &d
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Create inserts a role and its permission links in one transaction and
// populates the generated ID and timestamps on the provided record.
func (r *RoleRepo) Create(ctx context.Context, role *model.Role, permissionIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO roles (name, description) VALUES (?,?)", role.Name, role.Description)
	if err != nil {
		if isDuplicate(err) {
			return ErrRoleExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	role.ID = uint64(id)

	for _, permID := range permissionIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO role_permissions (role_id, permission_id) VALUES (?,?)", role.ID, permID); err != nil {
			return err
		}
	}

	row := tx.QueryRowContext(ctx, "SELECT "+roleColumns+" FROM roles WHERE id=?", role.ID)
	stored, err := scanRole(row)
	if err != nil {
		return err
	}
	perms := role.Permissions
	*role = stored
	role.Permissions = perms

	return tx.Commit()
}

// Update applies a partial update to a role and, when PermissionIDs is
// non-nil, replaces the role's permission set with exactly those ids. All
// statements run in one transaction.
func (r *RoleRepo) Update(ctx context.Context, id uint64, upd RoleUpdate) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if upd.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *upd.Name)
	}
	if upd.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *upd.Description)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx,
			"UPDATE roles SET "+strings.Join(sets, ", ")+", updated_at=NOW() WHERE id=?", args...); err != nil {
			if isDuplicate(err) {
				return ErrRoleExists
			}
			return err
		}
	}

	if upd.PermissionIDs != nil {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM role_permissions WHERE role_id=?", id); err != nil {
			return err
		}
		for _, permID := range upd.PermissionIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO role_permissions (role_id, permission_id) VALUES (?,?)", id, permID); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Delete removes a role and its membership links. Users and permissions
// referenced by the links are left intact.
func (r *RoleRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_permissions WHERE role_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE role_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM roles WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// permissionsForRole loads the permissions linked to a role. It is shared
// with UserRepo for association traversal.
func permissionsForRole(ctx context.Context, db *sql.DB, roleID uint64) ([]model.Permission, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT p.id, p.code, p.description, p.created_at, p.updated_at
		   FROM permissions p
		   JOIN role_permissions rp ON rp.permission_id = p.id
		  WHERE rp.role_id = ?
		  ORDER BY p.id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []model.Permission
	for rows.Next() {
		var (
			p    model.Permission
			desc sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Code, &desc, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			p.Description = &d
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
