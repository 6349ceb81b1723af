package models

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RolePlayer UserRole = "player"
)

// PlayerInfo is the display-safe subset of a user. Credentials never leave the users table.
type PlayerInfo struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	UserID int
	Role   UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
