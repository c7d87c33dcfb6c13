package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

func TestEffectivePermissions(t *testing.T) {
	ctx := context.Background()

	t.Run("Union of all assigned roles", func(t *testing.T) {
		m := newMemStore()
		m.addPermission("p1")
		m.addPermission("p2")
		m.addPermission("p3")
		roleA := m.addRole("role_a", "p1", "p2")
		m.addRole("role_b", "p2", "p3")
		u := m.addUser("u@example.com", "Passw0rd!", true, "role_a", "role_b")
		_, rbac, _ := m.services(testSessionConfig())

		set, err := rbac.EffectivePermissions(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"p1": {}, "p2": {}, "p3": {}}, set)

		// Removing role A keeps everything role B still grants.
		require.NoError(t, rbac.DeleteRole(ctx, roleA.ID))
		set, err = rbac.EffectivePermissions(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"p2": {}, "p3": {}}, set)
	})

	t.Run("No roles means empty set", func(t *testing.T) {
		m := newMemStore()
		u := m.addUser("u@example.com", "Passw0rd!", true)
		_, rbac, _ := m.services(testSessionConfig())

		set, err := rbac.EffectivePermissions(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, set)
	})
}

func TestCreateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates role with resolved permissions", func(t *testing.T) {
		m := newMemStore()
		m.addPermission("view_reports")
		_, rbac, _ := m.services(testSessionConfig())

		role, err := rbac.CreateRole(ctx, "auditor", nil, []string{"view_reports"})
		require.NoError(t, err)
		assert.Equal(t, "auditor", role.Name)
		require.Len(t, role.Permissions, 1)
		assert.Equal(t, "view_reports", role.Permissions[0].Code)
	})

	t.Run("Unknown code aborts the whole creation", func(t *testing.T) {
		m := newMemStore()
		m.addPermission("view_reports")
		_, rbac, _ := m.services(testSessionConfig())

		_, err := rbac.CreateRole(ctx, "auditor", nil, []string{"view_reports", "view_secrets"})
		require.ErrorIs(t, err, ErrUnknownPermissionCodes)
		assert.Contains(t, err.Error(), "view_secrets")

		// No role row persisted.
		_, err = memRoles{m}.GetByName(ctx, "auditor")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("Replaces the permission set", func(t *testing.T) {
		m := newMemStore()
		m.addPermission("p1")
		m.addPermission("p2")
		role := m.addRole("worker", "p1")
		_, rbac, _ := m.services(testSessionConfig())

		updated, err := rbac.UpdateRole(ctx, role.ID, nil, nil, []string{"p2"})
		require.NoError(t, err)
		require.Len(t, updated.Permissions, 1)
		assert.Equal(t, "p2", updated.Permissions[0].Code)
	})

	t.Run("Nil codes keeps the existing links", func(t *testing.T) {
		m := newMemStore()
		m.addPermission("p1")
		role := m.addRole("worker", "p1")
		_, rbac, _ := m.services(testSessionConfig())

		name := "worker2"
		updated, err := rbac.UpdateRole(ctx, role.ID, &name, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "worker2", updated.Name)
		require.Len(t, updated.Permissions, 1)
	})

	t.Run("Unknown role id", func(t *testing.T) {
		m := newMemStore()
		_, rbac, _ := m.services(testSessionConfig())

		_, err := rbac.UpdateRole(ctx, 999, nil, nil, nil)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Unknown code leaves the role untouched", func(t *testing.T) {
		m := newMemStore()
		m.addPermission("p1")
		role := m.addRole("worker", "p1")
		_, rbac, _ := m.services(testSessionConfig())

		_, err := rbac.UpdateRole(ctx, role.ID, nil, nil, []string{"nope"})
		require.ErrorIs(t, err, ErrUnknownPermissionCodes)

		got, err := rbac.GetRole(ctx, role.ID)
		require.NoError(t, err)
		require.Len(t, got.Permissions, 1)
		assert.Equal(t, "p1", got.Permissions[0].Code)
	})
}

func TestDeleteRole(t *testing.T) {
	ctx := context.Background()

	t.Run("Reserved admin role is never deletable", func(t *testing.T) {
		m := newMemStore()
		admin := m.addRole(model.AdminRoleName)
		_, rbac, _ := m.services(testSessionConfig())

		err := rbac.DeleteRole(ctx, admin.ID)
		assert.ErrorIs(t, err, ErrReservedRole)
		_, err = rbac.GetRole(ctx, admin.ID)
		assert.NoError(t, err)
	})

	t.Run("Deletion cascades links but keeps users and permissions", func(t *testing.T) {
		m := newMemStore()
		m.addPermission("p1")
		role := m.addRole("worker", "p1")
		u := m.addUser("u@example.com", "Passw0rd!", true, "worker")
		session, rbac, _ := m.services(testSessionConfig())

		require.NoError(t, rbac.DeleteRole(ctx, role.ID))

		got, err := session.Profile(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Roles)

		perms, err := rbac.ListPermissions(ctx)
		require.NoError(t, err)
		assert.Len(t, perms, 1)
	})
}

func TestAssignRolesToUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Replaces the role set", func(t *testing.T) {
		m := newMemStore()
		m.addRole("role_a")
		roleB := m.addRole("role_b")
		u := m.addUser("u@example.com", "Passw0rd!", true, "role_a")
		session, rbac, _ := m.services(testSessionConfig())

		require.NoError(t, rbac.AssignRolesToUser(ctx, u.ID, []uint64{roleB.ID}))

		got, err := session.Profile(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"role_b"}, got.RoleNames())
	})

	t.Run("Unknown id leaves the assignment unchanged", func(t *testing.T) {
		m := newMemStore()
		m.addRole("role_a")
		roleB := m.addRole("role_b")
		u := m.addUser("u@example.com", "Passw0rd!", true, "role_a")
		session, rbac, _ := m.services(testSessionConfig())

		err := rbac.AssignRolesToUser(ctx, u.ID, []uint64{roleB.ID, 999})
		require.ErrorIs(t, err, ErrUnknownRoleIDs)
		assert.Contains(t, err.Error(), "999")

		got, err := session.Profile(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"role_a"}, got.RoleNames())
	})

	t.Run("Unknown user", func(t *testing.T) {
		m := newMemStore()
		role := m.addRole("role_a")
		_, rbac, _ := m.services(testSessionConfig())

		err := rbac.AssignRolesToUser(ctx, 999, []uint64{role.ID})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestAdminUpdateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Applies profile fields and role set together", func(t *testing.T) {
		m := newMemStore()
		m.addRole("role_a")
		roleB := m.addRole("role_b")
		u := m.addUser("u@example.com", "Passw0rd!", true, "role_a")
		_, rbac, _ := m.services(testSessionConfig())

		first := "Renamed"
		got, err := rbac.AdminUpdateUser(ctx, u.ID,
			repository.UserUpdate{FirstName: &first}, []uint64{roleB.ID})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.FirstName)
		assert.Equal(t, []string{"role_b"}, got.RoleNames())
	})

	t.Run("Nil role ids keeps the assignment", func(t *testing.T) {
		m := newMemStore()
		m.addRole("role_a")
		u := m.addUser("u@example.com", "Passw0rd!", true, "role_a")
		_, rbac, _ := m.services(testSessionConfig())

		last := "Changed"
		got, err := rbac.AdminUpdateUser(ctx, u.ID,
			repository.UserUpdate{LastName: &last}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"role_a"}, got.RoleNames())
	})

	t.Run("Rejected email change leaves the role set untouched", func(t *testing.T) {
		m := newMemStore()
		m.addRole("role_a")
		roleB := m.addRole("role_b")
		m.addUser("taken@example.com", "Passw0rd!", true)
		u := m.addUser("u@example.com", "Passw0rd!", true, "role_a")
		session, rbac, _ := m.services(testSessionConfig())

		taken := "taken@example.com"
		_, err := rbac.AdminUpdateUser(ctx, u.ID,
			repository.UserUpdate{Email: &taken}, []uint64{roleB.ID})
		require.ErrorIs(t, err, repository.ErrEmailExists)

		got, err := session.Profile(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"role_a"}, got.RoleNames())
		assert.Equal(t, "u@example.com", got.Email)
	})

	t.Run("Unknown role id aborts before any write", func(t *testing.T) {
		m := newMemStore()
		m.addRole("role_a")
		u := m.addUser("u@example.com", "Passw0rd!", true, "role_a")
		session, rbac, _ := m.services(testSessionConfig())

		first := "Renamed"
		_, err := rbac.AdminUpdateUser(ctx, u.ID,
			repository.UserUpdate{FirstName: &first}, []uint64{999})
		require.ErrorIs(t, err, ErrUnknownRoleIDs)

		got, err := session.Profile(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Test", got.FirstName)
		assert.Equal(t, []string{"role_a"}, got.RoleNames())
	})

	t.Run("Unknown user", func(t *testing.T) {
		m := newMemStore()
		_, rbac, _ := m.services(testSessionConfig())

		_, err := rbac.AdminUpdateUser(ctx, 999, repository.UserUpdate{}, nil)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
