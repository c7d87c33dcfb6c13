package auth

import (
	"context"
	"fmt"
)

// PermissionResolver computes a user's effective permission set. It is
// satisfied by *RBAC.
type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, userID uint64) (map[string]struct{}, error)
}

// Guard decides allow/deny for privileged operations. The decision is
// all-or-nothing: a single missing code denies the whole request. The
// effective set is resolved fresh from storage on every call and must
// never be cached across requests, since assignments can change between
// calls.
type Guard struct {
	resolver PermissionResolver
}

func NewGuard(resolver PermissionResolver) *Guard {
	return &Guard{resolver: resolver}
}

// RequirePermissions returns nil when required is a subset of the user's
// effective permissions, and ErrPermissionDenied otherwise. The error
// never names the missing code; only the denied operation is visible to
// the caller.
func (g *Guard) RequirePermissions(ctx context.Context, userID uint64, required ...string) error {
	effective, err := g.resolver.EffectivePermissions(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve permissions: %w", err)
	}
	for _, code := range required {
		if _, ok := effective[code]; !ok {
			return ErrPermissionDenied
		}
	}
	return nil
}
