package model

import "time"

type Role string

const (
	RoleAdmin         Role = "admin"
	RoleSuperAdmin    Role = "super_admin"
	RoleTicketManager Role = "ticket_manager"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin, RoleTicketManager:
		return true
	}
	return false
}

// Admin is a stored administrator identity. PasswordHash never leaves the
// server.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AdminUpdate holds the fields of a partial admin update. Nil fields are left
// unchanged.
type AdminUpdate struct {
	Username     *string
	PasswordHash *string
	Role         *Role
}

// Principal is the verified claim set of a session token. ID and Username are
// empty for tokens minted through the shared passphrase.
type Principal struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role"`
	TokenID  string `json:"-"`
}
