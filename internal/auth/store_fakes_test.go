package auth

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/utils"
)

// memStore is an in-memory implementation of all four store interfaces.
// It mimics the repository semantics the services rely on: ErrNotFound
// translation, email/name uniqueness and atomic replace-style mutations.
type memStore struct {
	users     map[uint64]model.User
	roles     map[uint64]model.Role
	perms     map[uint64]model.Permission
	tokens    map[uint64]model.AccessToken
	userRoles map[uint64][]uint64
	rolePerms map[uint64][]uint64
	nextID    uint64
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uint64]model.User{},
		roles:     map[uint64]model.Role{},
		perms:     map[uint64]model.Permission{},
		tokens:    map[uint64]model.AccessToken{},
		userRoles: map[uint64][]uint64{},
		rolePerms: map[uint64][]uint64{},
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

// --- fixture helpers ---

func (m *memStore) addPermission(code string) model.Permission {
	p := model.Permission{ID: m.id(), Code: code, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.perms[p.ID] = p
	return p
}

func (m *memStore) addRole(name string, codes ...string) model.Role {
	role := model.Role{ID: m.id(), Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.roles[role.ID] = role
	for _, code := range codes {
		for _, p := range m.perms {
			if p.Code == code {
				m.rolePerms[role.ID] = append(m.rolePerms[role.ID], p.ID)
			}
		}
	}
	return role
}

func (m *memStore) addUser(email, password string, active bool, roleNames ...string) model.User {
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u := model.User{
		ID: m.id(), FirstName: "Test", LastName: "User",
		Email: email, PasswordHash: hash, IsActive: active,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.users[u.ID] = u
	for _, name := range roleNames {
		for _, role := range m.roles {
			if role.Name == name {
				m.userRoles[u.ID] = append(m.userRoles[u.ID], role.ID)
			}
		}
	}
	return u
}

func (m *memStore) roleWithPerms(id uint64) model.Role {
	role := m.roles[id]
	ids := append([]uint64(nil), m.rolePerms[id]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, pid := range ids {
		role.Permissions = append(role.Permissions, m.perms[pid])
	}
	return role
}

// --- UserStore ---

func (m *memStore) Create(_ context.Context, u *model.User, roleIDs []uint64) error {
	for _, existing := range m.users {
		if existing.Email == strings.ToLower(u.Email) {
			return repository.ErrEmailExists
		}
	}
	u.ID = m.id()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = *u
	m.userRoles[u.ID] = append([]uint64(nil), roleIDs...)
	return nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetWithRoles(ctx context.Context, id uint64) (model.User, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	ids := append([]uint64(nil), m.userRoles[id]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, roleID := range ids {
		u.Roles = append(u.Roles, m.roleWithPerms(roleID))
	}
	return u, nil
}

func (m *memStore) List(ctx context.Context) ([]model.User, error) {
	ids := make([]uint64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		u, err := m.GetWithRoles(ctx, id)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (m *memStore) Update(_ context.Context, id uint64, upd repository.UserUpdate) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		for otherID, other := range m.users {
			if otherID != id && other.Email == email {
				return repository.ErrEmailExists
			}
		}
		u.Email = email
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Patronymic != nil {
		u.Patronymic = upd.Patronymic
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	u.UpdatedAt = time.Now()
	m.users[id] = u
	return nil
}

func (m *memStore) UpdateWithRoles(ctx context.Context, id uint64, upd repository.UserUpdate, roleIDs []uint64) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	// Update rejects a duplicate email before mutating anything, so a
	// failure here leaves the role assignment untouched as well.
	if err := m.Update(ctx, id, upd); err != nil {
		return err
	}
	if roleIDs != nil {
		m.userRoles[id] = append([]uint64(nil), roleIDs...)
	}
	return nil
}

func (m *memStore) Deactivate(_ context.Context, id uint64) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = false
	m.users[id] = u
	for tid, t := range m.tokens {
		if t.UserID == id {
			t.IsRevoked = true
			m.tokens[tid] = t
		}
	}
	return nil
}

func (m *memStore) ReplaceRoles(_ context.Context, userID uint64, roleIDs []uint64) error {
	if _, ok := m.users[userID]; !ok {
		return repository.ErrNotFound
	}
	m.userRoles[userID] = append([]uint64(nil), roleIDs...)
	return nil
}

// --- RoleStore ---

func (m *memStore) listRoles() ([]model.Role, error) {
	ids := make([]uint64, 0, len(m.roles))
	for id := range m.roles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	roles := make([]model.Role, 0, len(ids))
	for _, id := range ids {
		roles = append(roles, m.roleWithPerms(id))
	}
	return roles, nil
}

func (m *memStore) GetByName(_ context.Context, name string) (model.Role, error) {
	for id, role := range m.roles {
		if role.Name == name {
			return m.roleWithPerms(id), nil
		}
	}
	return model.Role{}, repository.ErrNotFound
}

func (m *memStore) GetByIDs(_ context.Context, ids []uint64) ([]model.Role, error) {
	sorted := append([]uint64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var roles []model.Role
	seen := map[uint64]struct{}{}
	for _, id := range sorted {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := m.roles[id]; ok {
			roles = append(roles, m.roleWithPerms(id))
		}
	}
	return roles, nil
}

func (m *memStore) CreateRole(_ context.Context, role *model.Role, permissionIDs []uint64) error {
	for _, existing := range m.roles {
		if existing.Name == role.Name {
			return repository.ErrRoleExists
		}
	}
	role.ID = m.id()
	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()
	stored := *role
	stored.Permissions = nil
	m.roles[role.ID] = stored
	m.rolePerms[role.ID] = append([]uint64(nil), permissionIDs...)
	return nil
}

func (m *memStore) UpdateRole(_ context.Context, id uint64, upd repository.RoleUpdate) error {
	role, ok := m.roles[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.Name != nil {
		role.Name = *upd.Name
	}
	if upd.Description != nil {
		role.Description = upd.Description
	}
	role.UpdatedAt = time.Now()
	m.roles[id] = role
	if upd.PermissionIDs != nil {
		m.rolePerms[id] = append([]uint64(nil), upd.PermissionIDs...)
	}
	return nil
}

func (m *memStore) DeleteRole(_ context.Context, id uint64) error {
	if _, ok := m.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.roles, id)
	delete(m.rolePerms, id)
	for userID, roleIDs := range m.userRoles {
		kept := roleIDs[:0]
		for _, rid := range roleIDs {
			if rid != id {
				kept = append(kept, rid)
			}
		}
		m.userRoles[userID] = kept
	}
	return nil
}

// --- PermissionStore ---

func (m *memStore) listPermissions() ([]model.Permission, error) {
	ids := make([]uint64, 0, len(m.perms))
	for id := range m.perms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	perms := make([]model.Permission, 0, len(ids))
	for _, id := range ids {
		perms = append(perms, m.perms[id])
	}
	return perms, nil
}

func (m *memStore) GetByCodes(_ context.Context, codes []string) ([]model.Permission, error) {
	want := map[string]struct{}{}
	for _, code := range codes {
		want[code] = struct{}{}
	}
	ids := make([]uint64, 0, len(m.perms))
	for id := range m.perms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var perms []model.Permission
	for _, id := range ids {
		if _, ok := want[m.perms[id].Code]; ok {
			perms = append(perms, m.perms[id])
		}
	}
	return perms, nil
}

func (m *memStore) ListForUser(_ context.Context, userID uint64) ([]string, error) {
	set := map[string]struct{}{}
	for _, roleID := range m.userRoles[userID] {
		for _, permID := range m.rolePerms[roleID] {
			set[m.perms[permID].Code] = struct{}{}
		}
	}
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// --- TokenStore ---

func (m *memStore) Store(_ context.Context, t *model.AccessToken) error {
	t.ID = m.id()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	m.tokens[t.ID] = *t
	return nil
}

func (m *memStore) FindActive(_ context.Context, token string) (model.AccessToken, error) {
	for _, t := range m.tokens {
		if t.Token == token && !t.IsRevoked {
			return t, nil
		}
	}
	return model.AccessToken{}, repository.ErrNotFound
}

func (m *memStore) Revoke(_ context.Context, id uint64) error {
	t, ok := m.tokens[id]
	if !ok {
		return nil
	}
	t.IsRevoked = true
	m.tokens[id] = t
	return nil
}

func (m *memStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	for id, t := range m.tokens {
		if t.UserID == userID {
			t.IsRevoked = true
			m.tokens[id] = t
		}
	}
	return nil
}

// The store interfaces share method names (Create, List, Update, Delete)
// with different signatures, so memStore is exposed through per-interface
// views. memStore itself carries the UserStore and TokenStore method sets.

type memUsers struct{ *memStore }

type memTokens struct{ *memStore }

type memRoles struct{ *memStore }

func (m memRoles) List(context.Context) ([]model.Role, error) { return m.listRoles() }
func (m memRoles) GetByID(_ context.Context, id uint64) (model.Role, error) {
	if _, ok := m.roles[id]; !ok {
		return model.Role{}, repository.ErrNotFound
	}
	return m.roleWithPerms(id), nil
}
func (m memRoles) Create(ctx context.Context, role *model.Role, permissionIDs []uint64) error {
	return m.CreateRole(ctx, role, permissionIDs)
}
func (m memRoles) Update(ctx context.Context, id uint64, upd repository.RoleUpdate) error {
	return m.UpdateRole(ctx, id, upd)
}
func (m memRoles) Delete(ctx context.Context, id uint64) error { return m.DeleteRole(ctx, id) }

type memPerms struct{ *memStore }

func (m memPerms) List(context.Context) ([]model.Permission, error) { return m.listPermissions() }

// services wires the fixture into fully constructed services.
func (m *memStore) services(cfg SessionConfig) (*Session, *RBAC, *Guard) {
	users := memUsers{m}
	roles := memRoles{m}
	perms := memPerms{m}
	tokens := memTokens{m}
	session := NewSession(cfg, users, roles, tokens)
	rbac := NewRBAC(users, roles, perms)
	return session, rbac, NewGuard(rbac)
}

func testSessionConfig() SessionConfig {
	return SessionConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost}
}
