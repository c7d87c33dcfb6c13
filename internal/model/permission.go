package model

import "time"

// Permission represents a row in the `permissions` table. A permission is
// an atomic capability identified by its unique code (e.g. "manage_users").
// Permissions are referenced by roles through role_permissions and are
// never nested.
type Permission struct {
	ID          uint64    // permissions.id
	Code        string    // permissions.code (unique)
	Description *string   // permissions.description (nullable)
	CreatedAt   time.Time // permissions.created_at
	UpdatedAt   time.Time // permissions.updated_at
}
