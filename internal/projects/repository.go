package projects

import "context"

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	ListAll(ctx context.Context) ([]Project, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Project, error)
	Get(ctx context.Context, id int64) (*Project, error)
	Create(ctx context.Context, p Project) (Project, error)
	Update(ctx context.Context, p Project) (Project, error)
	Delete(ctx context.Context, id int64) error
}
