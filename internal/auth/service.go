package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredential covers every authentication failure: missing or
// malformed header, unknown credential, inactive account. Callers must not
// be able to distinguish the cases.
var ErrInvalidCredential = errors.New("auth: invalid credential")

// storeTimeout bounds credential store lookups so a slow store rejects the
// request instead of hanging it.
const storeTimeout = 2 * time.Second

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate resolves the principal presented by a raw Authorization
// header value. Any failure yields ErrInvalidCredential, except a store
// invariant violation which is passed through for operator visibility.
func (s *Service) Authenticate(ctx context.Context, rawHeader string) (*Principal, error) {
	raw, ok := ExtractBearer(rawHeader)
	if !ok {
		return nil, ErrInvalidCredential
	}

	lookupCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	principal, err := s.repo.FindByCredentialHash(lookupCtx, HashCredential(raw))
	if err != nil {
		if errors.Is(err, ErrHashCollision) {
			return nil, err
		}
		return nil, ErrInvalidCredential
	}
	if !principal.IsActive {
		return nil, ErrInvalidCredential
	}
	return principal, nil
}

// ExtractBearer parses a bearer-scheme Authorization header value.
func ExtractBearer(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	credential := strings.TrimSpace(parts[1])
	if credential == "" {
		return "", false
	}
	return credential, true
}

// Register creates an unverified principal and mints its first API
// credential. The raw credential is returned exactly once and never stored.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Principal, string, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	raw, hash, err := MintCredential()
	if err != nil {
		return nil, "", err
	}
	principal, err := s.repo.Create(ctx, name, strings.ToLower(strings.TrimSpace(email)), string(passwordHash), hash)
	if err != nil {
		return nil, "", err
	}
	return principal, raw, nil
}

// UpdateEmail changes the principal's email after re-confirming the
// password. The stored verification state is cleared in the same write, so
// the caller must run the verification lifecycle again for the new address.
func (s *Service) UpdateEmail(ctx context.Context, principal *Principal, password, newEmail string) (*Principal, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if newEmail == principal.Email {
		return principal, nil
	}
	return s.repo.UpdateEmail(ctx, principal.ID, newEmail)
}

// Login validates email/password and rotates the API credential. The
// previous credential stops resolving once the new hash is stored.
func (s *Service) Login(ctx context.Context, email, password string) (*Principal, string, error) {
	principal, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", ErrInvalidCredential
	}
	if !principal.IsActive {
		return nil, "", ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredential
	}
	raw, hash, err := MintCredential()
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.ReplaceCredential(ctx, principal.ID, hash); err != nil {
		return nil, "", err
	}
	principal.CredentialHash = hash
	return principal, raw, nil
}
