package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/auth-service/internal/model"
)

// TokenRepo persists issued access tokens so sessions can be revoked
// before their natural expiry. Rows are only ever mutated to flip
// is_revoked; physical deletion happens solely through the users cascade.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a token row and populates the generated ID.
func (r *TokenRepo) Store(ctx context.Context, t *model.AccessToken) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO access_tokens (user_id, token, expires_at) VALUES (?,?,?)",
		t.UserID, t.Token, t.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// FindActive returns the stored record for the given raw token string only
// when it has not been revoked. Revoked and unknown tokens are both
// reported as ErrNotFound; the expiry check belongs to the token codec.
func (r *TokenRepo) FindActive(ctx context.Context, token string) (model.AccessToken, error) {
	var t model.AccessToken
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, token, is_revoked, expires_at, created_at, updated_at
		   FROM access_tokens WHERE token=? AND is_revoked=0 LIMIT 1`,
		token).Scan(&t.ID, &t.UserID, &t.Token, &t.IsRevoked, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AccessToken{}, ErrNotFound
		}
		return model.AccessToken{}, err
	}
	return t, nil
}

// Revoke marks a token as revoked. Revoking an already revoked token is a
// no-op success.
func (r *TokenRepo) Revoke(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE access_tokens SET is_revoked=1, updated_at=NOW() WHERE id=? AND is_revoked=0", id)
	return err
}

// RevokeAllForUser revokes every active token owned by the user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE access_tokens SET is_revoked=1, updated_at=NOW() WHERE user_id=? AND is_revoked=0", userID)
	return err
}
