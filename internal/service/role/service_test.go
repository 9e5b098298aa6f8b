package role

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/repository"
	apperrors "github.com/medhaven/hospital-api/pkg/errors"
)

type fakeRoleRepo struct {
	byID        map[uuid.UUID]*model.Role
	existsCalls int
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{byID: make(map[uuid.UUID]*model.Role)}
}

func (f *fakeRoleRepo) Create(ctx context.Context, role *model.Role) error {
	role.ID = uuid.New()
	f.byID[role.ID] = role
	return nil
}

func (f *fakeRoleRepo) Get(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeRoleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	for _, r := range f.byID {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoleRepo) Exists(ctx context.Context, name string) (bool, error) {
	f.existsCalls++
	_, err := f.GetByName(ctx, name)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (f *fakeRoleRepo) Update(ctx context.Context, role *model.Role) error {
	f.byID[role.ID] = role
	return nil
}

func (f *fakeRoleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRoleRepo) List(ctx context.Context) ([]*model.Role, error) {
	var out []*model.Role
	for _, r := range f.byID {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRoleRepo) Assign(ctx context.Context, principalID, roleID uuid.UUID) error {
	return nil
}

func (f *fakeRoleRepo) Unassign(ctx context.Context, principalID, roleID uuid.UUID) error {
	return nil
}

func (f *fakeRoleRepo) ListForPrincipal(ctx context.Context, principalID uuid.UUID) ([]string, error) {
	return nil, nil
}

func TestCreateDuplicateRole(t *testing.T) {
	svc := NewService(newFakeRoleRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "Staff")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "Staff")
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func TestExistsCachesPositiveResults(t *testing.T) {
	repo := newFakeRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Staff")
	require.NoError(t, err)

	// Creation primes the cache, so these never hit the repository.
	for i := 0; i < 3; i++ {
		exists, err := svc.Exists(ctx, "Staff")
		require.NoError(t, err)
		assert.True(t, exists)
	}
	assert.Equal(t, 1, repo.existsCalls)
}

func TestExistsDoesNotCacheNegativeResults(t *testing.T) {
	repo := newFakeRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	exists, err := svc.Exists(ctx, "Ghost")
	require.NoError(t, err)
	assert.False(t, exists)

	// A role registered after a miss becomes visible immediately.
	_, err = svc.Create(ctx, "Ghost")
	require.NoError(t, err)

	exists, err = svc.Exists(ctx, "Ghost")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAssignUnknownRole(t *testing.T) {
	svc := NewService(newFakeRoleRepo())

	err := svc.Assign(context.Background(), uuid.New(), "Ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	repo := newFakeRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	role, err := svc.Create(ctx, "Staff")
	require.NoError(t, err)

	_, err = svc.Update(ctx, role.ID, "Clinicians")
	require.NoError(t, err)

	exists, err := svc.Exists(ctx, "Staff")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = svc.Exists(ctx, "Clinicians")
	require.NoError(t, err)
	assert.True(t, exists)
}
