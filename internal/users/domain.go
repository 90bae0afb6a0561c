package users

import "time"

// User represents an account row for administration views.
type User struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Roles      []string   `json:"roles"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RoleAssignment links a user to a role by name.
type RoleAssignment struct {
	UserID   int64
	RoleName string
}
