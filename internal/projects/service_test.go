package projects_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devport-app/devport/internal/auth"
	"github.com/devport-app/devport/internal/platform/httpx"
	"github.com/devport-app/devport/internal/projects"
	"github.com/devport-app/devport/internal/rbac"
)

type mockRepo struct {
	byID    map[int64]projects.Project
	nextID  int64
	deleted []int64
}

func newMockRepo(seed ...projects.Project) *mockRepo {
	repo := &mockRepo{byID: make(map[int64]projects.Project), nextID: 100}
	for _, p := range seed {
		repo.byID[p.ID] = p
	}
	return repo
}

func (m *mockRepo) ListAll(ctx context.Context) ([]projects.Project, error) {
	out := make([]projects.Project, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRepo) ListByOwner(ctx context.Context, ownerID int64) ([]projects.Project, error) {
	var out []projects.Project
	for _, p := range m.byID {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*projects.Project, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &p, nil
}

func (m *mockRepo) Create(ctx context.Context, p projects.Project) (projects.Project, error) {
	p.ID = m.nextID
	m.nextID++
	m.byID[p.ID] = p
	return p, nil
}

func (m *mockRepo) Update(ctx context.Context, p projects.Project) (projects.Project, error) {
	m.byID[p.ID] = p
	return p, nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

var (
	admin     = &auth.Principal{ID: 1, Roles: []string{rbac.RoleAdmin}}
	developer = &auth.Principal{ID: 2, Roles: []string{rbac.RoleDeveloper}}
	client    = &auth.Principal{ID: 3, Roles: []string{rbac.RoleClient}}
)

func TestListScopesToOwner(t *testing.T) {
	repo := newMockRepo(
		projects.Project{ID: 10, OwnerID: 2, Name: "API", Status: projects.StatusActive},
		projects.Project{ID: 11, OwnerID: 3, Name: "Site", Status: projects.StatusDraft},
	)
	service := projects.NewService(repo)

	all, err := service.List(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := service.List(context.Background(), developer)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, int64(10), own[0].ID)
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := newMockRepo(projects.Project{ID: 10, OwnerID: 2, Name: "API", Status: projects.StatusActive})
	service := projects.NewService(repo)

	_, err := service.Get(context.Background(), client, 10)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	got, err := service.Get(context.Background(), admin, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ID)

	_, err = service.Get(context.Background(), developer, 999)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreate(t *testing.T) {
	service := projects.NewService(newMockRepo())

	created, err := service.Create(context.Background(), developer, "API", "backend service", "")
	require.NoError(t, err)
	assert.Equal(t, developer.ID, created.OwnerID)
	assert.Equal(t, projects.StatusDraft, created.Status)

	_, err = service.Create(context.Background(), developer, "API", "", "launched")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newMockRepo(projects.Project{ID: 10, OwnerID: 2, Name: "API", Status: projects.StatusDraft})
	service := projects.NewService(repo)

	updated, err := service.Update(context.Background(), developer, 10, "API v2", "rewrite", projects.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, "API v2", updated.Name)
	assert.Equal(t, projects.StatusActive, updated.Status)

	_, err = service.Update(context.Background(), client, 10, "x", "", projects.StatusActive)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	err = service.Delete(context.Background(), client, 10)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	require.NoError(t, service.Delete(context.Background(), developer, 10))
	assert.Equal(t, []int64{10}, repo.deleted)
}
