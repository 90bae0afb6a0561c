package auth

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for the credential store.
var (
	// ErrNotFound indicates that no principal matched the lookup.
	ErrNotFound = errors.New("auth: principal not found")
	// ErrDuplicateEmail indicates a registration against a taken email.
	ErrDuplicateEmail = errors.New("auth: email already registered")
	// ErrHashCollision indicates more than one principal shares a credential
	// hash. The store enforces hash uniqueness, so this is an internal
	// invariant violation to surface to operators, never a business error.
	ErrHashCollision = errors.New("auth: duplicate credential hash in store")
)

// Repository defines persistence operations for the credential store. The
// core never sees raw credentials after issuance; every lookup goes through
// the stored hash.
type Repository interface {
	FindByCredentialHash(ctx context.Context, hash string) (*Principal, error)
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByID(ctx context.Context, id int64) (*Principal, error)
	Create(ctx context.Context, name, email, passwordHash, credentialHash string) (*Principal, error)
	ReplaceCredential(ctx context.Context, id int64, credentialHash string) error
	UpdateEmail(ctx context.Context, id int64, email string) (*Principal, error)
	SetVerified(ctx context.Context, id int64, at time.Time) error
	GetRoles(ctx context.Context, id int64) ([]string, error)
}
