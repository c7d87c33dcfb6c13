// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// session and RBAC services to distinguish between failure scenarios
// without inspecting driver-specific errors.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested user, role, permission or
// token row does not exist. Repositories translate sql.ErrNoRows into
// this value so callers never depend on database/sql directly.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update violates the
// unique constraint on users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrRoleExists is returned when an insert or update violates the
// unique constraint on roles.name.
var ErrRoleExists = errors.New("role name already exists")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "1062")
}
