package domain

// Role gates access to administrative operations and per-user chat listing.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Principal captures the normalized caller identity resolved from a session token.
type Principal struct {
	UserID   uint
	PublicID string
	Email    string
	Role     Role
}

// IsAdmin reports whether the principal may access administrative routes.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
