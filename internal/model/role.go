package model

import "time"

// Role represents a row in the `roles` table. A role is a named bundle of
// permissions; users acquire capabilities only through role membership,
// never directly. The role named "admin" is reserved: it is created by the
// seeder, always holds the full permission catalogue and can never be
// deleted.
//
// Permissions is populated only by queries that join role_permissions.
type Role struct {
	ID          uint64    // roles.id
	Name        string    // roles.name (unique)
	Description *string   // roles.description (nullable)
	CreatedAt   time.Time // roles.created_at
	UpdatedAt   time.Time // roles.updated_at

	Permissions []Permission // joined via role_permissions, loaded on demand
}

// AdminRoleName is the reserved bootstrap role that can never be deleted.
const AdminRoleName = "admin"

// DefaultRoleName is assigned to every newly registered user.
const DefaultRoleName = "basic_user"
