package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/devport-app/devport/internal/auth"
)

type stubRepo struct {
	byHash    map[string]*auth.Principal
	byEmail   map[string]*auth.Principal
	byID      map[int64]*auth.Principal
	nextID    int64
	collide   bool
	replaced  map[int64]string
	lookupErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byHash:   make(map[string]*auth.Principal),
		byEmail:  make(map[string]*auth.Principal),
		byID:     make(map[int64]*auth.Principal),
		nextID:   1,
		replaced: make(map[int64]string),
	}
}

func (s *stubRepo) add(p *auth.Principal) {
	s.byHash[p.CredentialHash] = p
	s.byEmail[p.Email] = p
	s.byID[p.ID] = p
}

func (s *stubRepo) FindByCredentialHash(ctx context.Context, hash string) (*auth.Principal, error) {
	if s.collide {
		return nil, auth.ErrHashCollision
	}
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	p, ok := s.byHash[hash]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Principal, error) {
	p, ok := s.byEmail[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.Principal, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) Create(ctx context.Context, name, email, passwordHash, credentialHash string) (*auth.Principal, error) {
	if _, exists := s.byEmail[email]; exists {
		return nil, auth.ErrDuplicateEmail
	}
	p := &auth.Principal{
		ID:             s.nextID,
		Name:           name,
		Email:          email,
		PasswordHash:   passwordHash,
		CredentialHash: credentialHash,
		Roles:          []string{},
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	s.nextID++
	s.add(p)
	return p, nil
}

func (s *stubRepo) ReplaceCredential(ctx context.Context, id int64, credentialHash string) error {
	p, ok := s.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	delete(s.byHash, p.CredentialHash)
	p.CredentialHash = credentialHash
	s.byHash[credentialHash] = p
	s.replaced[id] = credentialHash
	return nil
}

func (s *stubRepo) UpdateEmail(ctx context.Context, id int64, email string) (*auth.Principal, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if other, exists := s.byEmail[email]; exists && other.ID != id {
		return nil, auth.ErrDuplicateEmail
	}
	delete(s.byEmail, p.Email)
	p.Email = email
	p.VerifiedAt = nil
	s.byEmail[email] = p
	return p, nil
}

func (s *stubRepo) SetVerified(ctx context.Context, id int64, at time.Time) error {
	p, ok := s.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	if p.VerifiedAt == nil {
		t := at
		p.VerifiedAt = &t
	}
	return nil
}

func (s *stubRepo) GetRoles(ctx context.Context, id int64) ([]string, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return p.Roles, nil
}

var _ auth.Repository = (*stubRepo)(nil)

func TestMintCredential(t *testing.T) {
	raw, hash, err := auth.MintCredential()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(raw, "dp_"))
	require.Equal(t, auth.HashCredential(raw), hash)
	require.Len(t, auth.CredentialPrefix(raw), 8)

	raw2, hash2, err := auth.MintCredential()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
	assert.NotEqual(t, hash, hash2)
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"missing", "", "", false},
		{"no scheme", "dp_abc_xyz", "", false},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", false},
		{"bearer", "Bearer dp_abc_xyz", "dp_abc_xyz", true},
		{"case insensitive scheme", "bearer dp_abc_xyz", "dp_abc_xyz", true},
		{"empty credential", "Bearer ", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := auth.ExtractBearer(tc.header)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newStubRepo()
	service := auth.NewService(repo)

	principal, raw, err := service.Register(context.Background(), "Dev One", "dev@test.local", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	// The stored hash is the digest, never the raw value.
	require.NotEqual(t, raw, principal.CredentialHash)

	t.Run("valid credential resolves principal", func(t *testing.T) {
		got, err := service.Authenticate(context.Background(), "Bearer "+raw)
		require.NoError(t, err)
		assert.Equal(t, principal.ID, got.ID)
	})

	t.Run("unknown credential", func(t *testing.T) {
		_, err := service.Authenticate(context.Background(), "Bearer dp_deadbeef_notreal")
		assert.ErrorIs(t, err, auth.ErrInvalidCredential)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := service.Authenticate(context.Background(), "")
		assert.ErrorIs(t, err, auth.ErrInvalidCredential)
	})

	t.Run("malformed scheme", func(t *testing.T) {
		_, err := service.Authenticate(context.Background(), "Token "+raw)
		assert.ErrorIs(t, err, auth.ErrInvalidCredential)
	})

	t.Run("inactive principal", func(t *testing.T) {
		principal.IsActive = false
		defer func() { principal.IsActive = true }()
		_, err := service.Authenticate(context.Background(), "Bearer "+raw)
		assert.ErrorIs(t, err, auth.ErrInvalidCredential)
	})

	t.Run("hash collision surfaces as invariant violation", func(t *testing.T) {
		repo.collide = true
		defer func() { repo.collide = false }()
		_, err := service.Authenticate(context.Background(), "Bearer "+raw)
		assert.ErrorIs(t, err, auth.ErrHashCollision)
	})
}

func TestRegister(t *testing.T) {
	repo := newStubRepo()
	service := auth.NewService(repo)

	principal, raw, err := service.Register(context.Background(), "Dev One", "Dev@Test.Local", "password123")
	require.NoError(t, err)
	assert.Equal(t, "dev@test.local", principal.Email)
	assert.Nil(t, principal.VerifiedAt)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte("password123")))
	assert.Equal(t, auth.HashCredential(raw), principal.CredentialHash)

	_, _, err = service.Register(context.Background(), "Dev Two", "dev@test.local", "password456")
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestLogin(t *testing.T) {
	repo := newStubRepo()
	service := auth.NewService(repo)

	principal, firstRaw, err := service.Register(context.Background(), "Dev One", "dev@test.local", "password123")
	require.NoError(t, err)

	t.Run("rotates credential", func(t *testing.T) {
		_, raw, err := service.Login(context.Background(), "dev@test.local", "password123")
		require.NoError(t, err)
		require.NotEqual(t, firstRaw, raw)

		// Old credential no longer resolves.
		_, err = service.Authenticate(context.Background(), "Bearer "+firstRaw)
		assert.ErrorIs(t, err, auth.ErrInvalidCredential)

		got, err := service.Authenticate(context.Background(), "Bearer "+raw)
		require.NoError(t, err)
		assert.Equal(t, principal.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := service.Login(context.Background(), "dev@test.local", "wrongpass")
		assert.ErrorIs(t, err, auth.ErrInvalidCredential)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := service.Login(context.Background(), "ghost@test.local", "password123")
		assert.ErrorIs(t, err, auth.ErrInvalidCredential)
	})
}

func TestUpdateEmail(t *testing.T) {
	repo := newStubRepo()
	service := auth.NewService(repo)

	principal, _, err := service.Register(context.Background(), "Dev One", "dev@test.local", "password123")
	require.NoError(t, err)
	require.NoError(t, repo.SetVerified(context.Background(), principal.ID, time.Now()))
	require.True(t, principal.Verified())

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := service.UpdateEmail(context.Background(), principal, "wrongpass", "new@test.local")
		assert.ErrorIs(t, err, auth.ErrInvalidCredential)
		assert.True(t, principal.Verified())
	})

	t.Run("changing the address drops verified status", func(t *testing.T) {
		updated, err := service.UpdateEmail(context.Background(), principal, "password123", " New@Test.Local ")
		require.NoError(t, err)
		assert.Equal(t, "new@test.local", updated.Email)
		assert.Nil(t, updated.VerifiedAt)
	})

	t.Run("same address is a no-op", func(t *testing.T) {
		now := time.Now()
		principal.VerifiedAt = &now
		updated, err := service.UpdateEmail(context.Background(), principal, "password123", "new@test.local")
		require.NoError(t, err)
		assert.NotNil(t, updated.VerifiedAt)
	})

	t.Run("taken address is a duplicate", func(t *testing.T) {
		_, _, err := service.Register(context.Background(), "Dev Two", "other@test.local", "password456")
		require.NoError(t, err)
		_, err = service.UpdateEmail(context.Background(), principal, "password123", "other@test.local")
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	})
}
