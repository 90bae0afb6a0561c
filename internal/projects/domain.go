// Package projects is the portfolio resource slice: a minimal owner-scoped
// CRUD surface that role-gated clients and developers manage and admins
// oversee.
package projects

import "time"

// Project statuses.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Project represents one portfolio entry.
type Project struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidStatus reports whether s is a known project status.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusActive || s == StatusArchived
}
