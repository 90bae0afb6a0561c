package auth

import "time"

// Principal represents an authenticated actor: an account with an API
// credential, a set of role names, and an email verification state.
type Principal struct {
	ID             int64
	Name           string
	Email          string
	PasswordHash   string
	CredentialHash string
	Roles          []string
	VerifiedAt     *time.Time
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Verified reports whether the principal completed email verification.
func (p *Principal) Verified() bool {
	return p != nil && p.VerifiedAt != nil
}

// HasRole reports whether the principal holds the given role name.
func (p *Principal) HasRole(name string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}
