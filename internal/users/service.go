package users

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Service handles user administration logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users with their role names merged in. The two
// queries run concurrently.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	var (
		users       []User
		assignments []RoleAssignment
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.repo.ListUsers(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = s.repo.ListRoleAssignments(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byUser := make(map[int64][]string, len(users))
	for _, a := range assignments {
		byUser[a.UserID] = append(byUser[a.UserID], a.RoleName)
	}
	for i := range users {
		if roles, ok := byUser[users[i].ID]; ok {
			users[i].Roles = roles
		}
	}
	return users, nil
}

// AssignRole grants a role to a user.
func (s *Service) AssignRole(ctx context.Context, userID int64, roleName string) error {
	return s.repo.AssignRole(ctx, userID, roleName)
}

// RemoveRole revokes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID int64, roleName string) error {
	return s.repo.RemoveRole(ctx, userID, roleName)
}
