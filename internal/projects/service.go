package projects

import (
	"context"

	"github.com/devport-app/devport/internal/auth"
	"github.com/devport-app/devport/internal/platform/httpx"
	"github.com/devport-app/devport/internal/rbac"
)

// Service enforces ownership scoping over the repository: admins operate on
// any project, everyone else only on their own.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func isAdmin(p *auth.Principal) bool {
	return p.HasRole(rbac.RoleAdmin)
}

// List returns the projects visible to the principal.
func (s *Service) List(ctx context.Context, principal *auth.Principal) ([]Project, error) {
	if isAdmin(principal) {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByOwner(ctx, principal.ID)
}

// Get fetches one project the principal may see.
func (s *Service) Get(ctx context.Context, principal *auth.Principal, id int64) (*Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin(principal) && project.OwnerID != principal.ID {
		return nil, httpx.ErrForbidden
	}
	return project, nil
}

// Create inserts a project owned by the principal.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, name, description, status string) (Project, error) {
	if status == "" {
		status = StatusDraft
	}
	if !ValidStatus(status) {
		return Project{}, httpx.ErrValidation
	}
	return s.repo.Create(ctx, Project{
		OwnerID:     principal.ID,
		Name:        name,
		Description: description,
		Status:      status,
	})
}

// Update rewrites a project the principal may modify.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, id int64, name, description, status string) (Project, error) {
	existing, err := s.Get(ctx, principal, id)
	if err != nil {
		return Project{}, err
	}
	if !ValidStatus(status) {
		return Project{}, httpx.ErrValidation
	}
	existing.Name = name
	existing.Description = description
	existing.Status = status
	return s.repo.Update(ctx, *existing)
}

// Delete removes a project the principal may modify.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
