package roles

import (
	"context"
	"strings"

	"github.com/devport-app/devport/internal/platform/httpx"
)

// Service handles role catalogue logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// CreateRole inserts a new role with a normalized name.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return Role{}, httpx.ErrValidation
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}
