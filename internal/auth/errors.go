// Package auth implements the core of the service: session lifecycle
// (login, authenticate, logout, deactivation), the RBAC graph with its
// permission-resolution algorithm, and the authorization guard consulted
// before privileged work.
package auth

import "errors"

// ErrInvalidCredentials is returned by Login for a wrong email, a wrong
// password or an inactive account. The three causes are deliberately
// indistinguishable to prevent user enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrTokenInvalid is returned by Authenticate when the bearer token fails
// signature, required-claim or expiry validation.
var ErrTokenInvalid = errors.New("invalid or expired token")

// ErrTokenRevoked is returned by Authenticate when the token decodes fine
// but no active stored record matches it: it was revoked or never issued
// by this service. Externally both token errors map to the same 401.
var ErrTokenRevoked = errors.New("token revoked or unknown")

// ErrUserInactive is returned by Authenticate when the token's owner is
// missing or deactivated.
var ErrUserInactive = errors.New("user inactive or not found")

// ErrPermissionDenied is returned by the guard when at least one required
// permission code is missing from the user's effective set.
var ErrPermissionDenied = errors.New("insufficient permissions")

// ErrReservedRole is returned when a caller tries to delete the reserved
// admin role.
var ErrReservedRole = errors.New("cannot delete reserved role")

// ErrUnknownPermissionCodes is returned, wrapped with the offending codes,
// when a role mutation references permission codes that do not exist.
// Nothing is mutated in that case.
var ErrUnknownPermissionCodes = errors.New("unknown permission codes")

// ErrUnknownRoleIDs is returned, wrapped with the offending ids, when a
// user role assignment references roles that do not exist. Nothing is
// mutated in that case.
var ErrUnknownRoleIDs = errors.New("unknown role ids")

// ErrDefaultRoleMissing is returned by Register when the seeded default
// role is absent. This indicates a broken bootstrap, not a caller error.
var ErrDefaultRoleMissing = errors.New("default role missing")
