package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/auth-service/internal/model"
)

// PermissionRepo provides read access to the permission catalogue. The
// catalogue itself is owned by the seeder; there is no API for creating
// permissions at runtime.
type PermissionRepo struct{ DB *sql.DB }

func NewPermissionRepo(db *sql.DB) *PermissionRepo { return &PermissionRepo{DB: db} }

const permissionColumns = "id, code, description, created_at, updated_at"

// List returns every permission ordered by id.
func (r *PermissionRepo) List(ctx context.Context) ([]model.Permission, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+permissionColumns+" FROM permissions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// GetByCodes returns the permissions matching the given codes. Missing
// codes are not an error here; the caller compares the result set against
// the requested codes to detect unknown ones before mutating anything.
func (r *PermissionRepo) GetByCodes(ctx context.Context, codes []string) ([]model.Permission, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(codes)), ",")
	args := make([]any, len(codes))
	for i, code := range codes {
		args[i] = code
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+permissionColumns+" FROM permissions WHERE code IN ("+placeholders+") ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// ListForUser returns the distinct permission codes a user holds through
// all of its assigned roles. The union is computed in a single join so the
// suspension point stays visible to the caller.
func (r *PermissionRepo) ListForUser(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT p.code
		   FROM permissions p
		   JOIN role_permissions rp ON rp.permission_id = p.id
		   JOIN user_roles ur ON ur.role_id = rp.role_id
		  WHERE ur.user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func scanPermissions(rows *sql.Rows) ([]model.Permission, error) {
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
