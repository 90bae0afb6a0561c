package roles

import "context"

// RepositoryPort defines data access methods for the role catalogue.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
}
