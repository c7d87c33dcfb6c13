package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/utils"
)

// The seeder owns the permission catalogue, the role-to-permission matrix
// and the bootstrap administrator. Re-running it never duplicates rows:
// missing pieces are created, the matrix of the owned roles is re-asserted,
// and custom assignments outside that matrix are left alone.

var seedPermissions = []struct {
	code, description string
}{
	{"manage_users", "Create, update, and deactivate users."},
	{"view_users", "View user directory."},
	{"manage_roles", "Manage role definitions and permissions."},
	{"view_projects", "Access project catalogue."},
	{"edit_projects", "Modify project records."},
	{"view_reports", "Access analytical reports."},
}

var seedRoleMatrix = []struct {
	name, description string
	permissions       []string
}{
	{model.AdminRoleName, "Full administrative access.", []string{
		"manage_users", "view_users", "manage_roles",
		"view_projects", "edit_projects", "view_reports",
	}},
	{"manager", "Manage and review projects.", []string{
		"view_users", "view_projects", "edit_projects", "view_reports",
	}},
	{"analyst", "View analytics only.", []string{
		"view_projects", "view_reports",
	}},
	{model.DefaultRoleName, "Default role for newly registered users.", []string{
		"view_projects",
	}},
}

// Seed ensures the permission catalogue, the role matrix and the
// administrative user exist. All writes run in a single transaction so a
// half-applied bootstrap is never observable.
func Seed(ctx context.Context, db *sql.DB, cfg config.Config) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	permIDs := make(map[string]uint64, len(seedPermissions))
	for _, p := range seedPermissions {
		id, err := ensureRow(ctx, tx,
			"SELECT id FROM permissions WHERE code=?",
			"INSERT INTO permissions (code, description) VALUES (?,?)",
			p.code, p.description)
		if err != nil {
			return err
		}
		permIDs[p.code] = id
	}

	adminRoleID := uint64(0)
	for _, r := range seedRoleMatrix {
		roleID, err := ensureRow(ctx, tx,
			"SELECT id FROM roles WHERE name=?",
			"INSERT INTO roles (name, description) VALUES (?,?)",
			r.name, r.description)
		if err != nil {
			return err
		}
		if r.name == model.AdminRoleName {
			adminRoleID = roleID
		}
		// Re-assert the owned matrix: replace the role's links with
		// exactly the configured set.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM role_permissions WHERE role_id=?", roleID); err != nil {
			return err
		}
		for _, code := range r.permissions {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO role_permissions (role_id, permission_id) VALUES (?,?)",
				roleID, permIDs[code]); err != nil {
				return err
			}
		}
	}

	if err := seedAdminUser(ctx, tx, cfg, adminRoleID); err != nil {
		return err
	}
	return tx.Commit()
}

// seedAdminUser creates the bootstrap administrator on first run and
// re-attaches the admin role if it was ever removed. An existing password
// is never overwritten.
func seedAdminUser(ctx context.Context, tx *sql.Tx, cfg config.Config, adminRoleID uint64) error {
	var userID uint64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email=?", cfg.SeedAdminEmail).Scan(&userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		hash, err := utils.HashPassword(cfg.SeedAdminPassword, cfg.BcryptCost)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO users (first_name, last_name, email, password_hash, is_active) VALUES (?,?,?,?,1)",
			"System", "Administrator", cfg.SeedAdminEmail, hash)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		userID = uint64(id)
	case err != nil:
		return err
	}

	var linkID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM user_roles WHERE user_id=? AND role_id=?", userID, adminRoleID).Scan(&linkID)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", userID, adminRoleID)
	}
	return err
}

// ensureRow returns the id of the row selected by selectQ, inserting it
// with insertQ when absent.
func ensureRow(ctx context.Context, tx *sql.Tx, selectQ, insertQ string, args ...any) (uint64, error) {
	var id uint64
	err := tx.QueryRowContext(ctx, selectQ, args[0]).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, insertQ, args...)
	if err != nil {
		return 0, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(newID), nil
}
