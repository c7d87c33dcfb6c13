// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published to the auth.events queue.
const (
	EventLogin      = "login"
	EventLogout     = "logout"
	EventRegister   = "register"
	EventDeactivate = "deactivate"
)

// AuthEvent is published whenever a session boundary is crossed: a user
// registers, logs in, logs out or an account is deactivated. It carries
// enough information for downstream consumers to build an audit trail
// without querying the primary database. Credentials and tokens are never
// part of the payload.
type AuthEvent struct {
	Type       string `json:"type"`
	UserID     uint64 `json:"user_id"`
	Email      string `json:"email"`
	OccurredAt string `json:"occurred_at"`
}
