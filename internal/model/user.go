package model

import "time"

// User represents a row in the `users` table. Each field corresponds to a
// column in the database. The json tags are omitted here because these
// structs are used internally by the repository layer; handlers define
// separate response types with appropriate JSON tags.
//
// Roles is populated only by queries that explicitly join the user_roles
// association; a zero-length slice on a freshly scanned row does not mean
// the user has no roles.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FirstName    – given name.
//  LastName     – family name.
//  Patronymic   – optional middle name (nullable).
//  Email        – unique, lowercased email address.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account is active; inactive users cannot log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Patronymic   *string   // users.patronymic (nullable)
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at

	Roles []Role // joined via user_roles, loaded on demand
}

// RoleNames returns the names of the loaded roles in assignment order.
func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
