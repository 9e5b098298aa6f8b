package role

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/repository"
	apperrors "github.com/medhaven/hospital-api/pkg/errors"
)

const (
	existsCacheTTL     = time.Minute
	existsCacheCleanup = 5 * time.Minute
)

// Service is the role registry and membership manager. Existence checks sit on
// the hot path of every role mutation, so they are cached with a short TTL.
type Service struct {
	repo  repository.RoleRepository
	cache *cache.Cache
}

func NewService(repo repository.RoleRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(existsCacheTTL, existsCacheCleanup),
	}
}

func (s *Service) Create(ctx context.Context, name string) (*model.Role, error) {
	exists, err := s.repo.Exists(ctx, name)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if exists {
		return nil, apperrors.AlreadyExists("role")
	}

	role := &model.Role{Name: name}
	if err := s.repo.Create(ctx, role); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Internal(err)
	}

	s.cache.Set(name, true, cache.DefaultExpiration)
	return role, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("role")
		}
		return nil, apperrors.Internal(err)
	}
	return role, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, name string) (*model.Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("role")
		}
		return nil, apperrors.Internal(err)
	}

	s.cache.Delete(role.Name)
	role.Name = name
	if err := s.repo.Update(ctx, role); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Internal(err)
	}

	return role, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("role")
		}
		return apperrors.Internal(err)
	}

	s.cache.Delete(role.Name)
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("role")
		}
		return apperrors.Internal(err)
	}

	return nil
}

func (s *Service) List(ctx context.Context) ([]*model.Role, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return roles, nil
}

// Exists reports whether the role is registered.
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	if v, found := s.cache.Get(name); found {
		return v.(bool), nil
	}

	exists, err := s.repo.Exists(ctx, name)
	if err != nil {
		return false, err
	}

	// Only positive results are cached: a freshly registered role must become
	// assignable immediately.
	if exists {
		s.cache.Set(name, true, cache.DefaultExpiration)
	}
	return exists, nil
}

// Assign adds the named role to a principal.
func (s *Service) Assign(ctx context.Context, principalID uuid.UUID, name string) error {
	role, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to resolve role: %w", err)
	}

	return s.repo.Assign(ctx, principalID, role.ID)
}

// Unassign removes the named role from a principal.
func (s *Service) Unassign(ctx context.Context, principalID uuid.UUID, name string) error {
	role, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to resolve role: %w", err)
	}

	return s.repo.Unassign(ctx, principalID, role.ID)
}

// ListForPrincipal returns the role names held by a principal.
func (s *Service) ListForPrincipal(ctx context.Context, principalID uuid.UUID) ([]string, error) {
	return s.repo.ListForPrincipal(ctx, principalID)
}
