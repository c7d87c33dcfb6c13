package model

import "time"

// AccessToken models an entry in the `access_tokens` table. Every login
// stores the issued JWT verbatim so a session can be revoked before its
// natural expiry. Rows are never deleted except through the users cascade;
// logout only flips IsRevoked.
//
// A token authenticates a request only when the signed claims verify AND
// the stored row is present with IsRevoked=false. The row guards against
// replay after logout, the signature guards against forgery; neither check
// substitutes for the other.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  Token     – the signed JWT string, unique.
//  IsRevoked – true once the session is terminated.
//  ExpiresAt – expiry mirrored from the token claims.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type AccessToken struct {
	ID        uint64    // access_tokens.id
	UserID    uint64    // access_tokens.user_id
	Token     string    // access_tokens.token
	IsRevoked bool      // access_tokens.is_revoked
	ExpiresAt time.Time // access_tokens.expires_at
	CreatedAt time.Time // access_tokens.created_at
	UpdatedAt time.Time // access_tokens.updated_at
}
