package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/auth-service/internal/model"
)

// UserRepo provides CRUD operations for users and their role assignments.
// Multi-statement mutations run inside a transaction so a request can be
// abandoned mid-call without leaving partial writes behind.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UserUpdate carries a partial update of a user row. Nil fields are left
// untouched.
type UserUpdate struct {
	FirstName  *string
	LastName   *string
	Patronymic *string
	Email      *string
	IsActive   *bool
}

const userColumns = "id, first_name, last_name, patronymic, email, password_hash, is_active, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u          model.User
		patronymic sql.NullString
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &patronymic, &u.Email,
		&u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	if patronymic.Valid {
		p := patronymic.String
		u.Patronymic = &p
	}
	return u, nil
}

// Create inserts a user and its initial role links in one transaction and
// populates the generated ID and timestamps on the provided record.
func (r *UserRepo) Create(ctx context.Context, u *model.User, roleIDs []uint64) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, patronymic, email, password_hash, is_active) VALUES (?,?,?,?,?,1)",
		u.FirstName, u.LastName, u.Patronymic, u.Email, u.PasswordHash)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)

	for _, roleID := range roleIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", u.ID, roleID); err != nil {
			return err
		}
	}

	// Query back the row to populate timestamps and defaults.
	row := tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=?", u.ID)
	stored, err := scanUser(row)
	if err != nil {
		return err
	}
	*u = stored

	return tx.Commit()
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id without loading associations.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// GetWithRoles fetches a user together with its roles and each role's
// permissions. Association traversal is done with explicit follow-up
// queries rather than implicit lazy loading.
func (r *UserRepo) GetWithRoles(ctx context.Context, id uint64) (model.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	roles, err := r.rolesForUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	u.Roles = roles
	return u, nil
}

// List returns all users with their role names loaded.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var (
			u          model.User
			patronymic sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &patronymic, &u.Email,
			&u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if patronymic.Valid {
			p := patronymic.String
			u.Patronymic = &p
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range users {
		roles, err := r.rolesForUser(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Roles = roles
	}
	return users, nil
}

// updateSets builds the SET clause for a partial user update. An empty
// result means there is nothing to write.
func (upd UserUpdate) updateSets() ([]string, []any) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if upd.FirstName != nil {
		sets = append(sets, "first_name=?")
		args = append(args, *upd.FirstName)
	}
	if upd.LastName != nil {
		sets = append(sets, "last_name=?")
		args = append(args, *upd.LastName)
	}
	if upd.Patronymic != nil {
		sets = append(sets, "patronymic=?")
		args = append(args, *upd.Patronymic)
	}
	if upd.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *upd.IsActive)
	}
	return sets, args
}

// Update applies a partial update to a user row. It returns ErrNotFound
// when the id does not exist and ErrEmailExists on a duplicate email.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) error {
	sets, args := upd.updateSets()
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+", updated_at=NOW() WHERE id=?", args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdateWithRoles applies a partial user update and, when roleIDs is
// non-nil, replaces the user's role set, all inside one transaction. A
// duplicate email or any other failure rolls both parts back, so a role
// assignment is never observable from a request that reported an error.
func (r *UserRepo) UpdateWithRoles(ctx context.Context, id uint64, upd UserUpdate, roleIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM users WHERE id=?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if sets, args := upd.updateSets(); len(sets) > 0 {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ", ")+", updated_at=NOW() WHERE id=?", args...); err != nil {
			if isDuplicate(err) {
				return ErrEmailExists
			}
			return err
		}
	}

	if roleIDs != nil {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM user_roles WHERE user_id=?", id); err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", id, roleID); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Deactivate flips is_active to false and revokes every token owned by the
// user in a single transaction. No active session survives a deactivation.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET is_active=0, updated_at=NOW() WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=?", id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE access_tokens SET is_revoked=1, updated_at=NOW() WHERE user_id=? AND is_revoked=0", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceRoles replaces the user's role set with exactly the given role
// ids. The delete and inserts run in one transaction; the caller must have
// validated the ids beforehand.
func (r *UserRepo) ReplaceRoles(ctx context.Context, userID uint64, roleIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM user_roles WHERE user_id=?", userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", userID, roleID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// rolesForUser loads the roles assigned to a user along with each role's
// permissions.
func (r *UserRepo) rolesForUser(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.name, r.description, r.created_at, r.updated_at
		   FROM roles r
		   JOIN user_roles ur ON ur.role_id = r.id
		  WHERE ur.user_id = ?
		  ORDER BY r.id`, userID)
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
