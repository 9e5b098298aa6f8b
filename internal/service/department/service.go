package department

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/repository"
	apperrors "github.com/medhaven/hospital-api/pkg/errors"
)

// Service manages departments.
type Service struct {
	departments repository.DepartmentRepository
}

func NewService(departments repository.DepartmentRepository) *Service {
	return &Service{departments: departments}
}

func (s *Service) Create(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error) {
	department := &model.Department{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, apperrors.Internal(err)
	}
	return department, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	department, err := s.departments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("department")
		}
		return nil, apperrors.Internal(err)
	}
	return department, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDepartmentRequest) (*model.Department, error) {
	department, err := s.departments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("department")
		}
		return nil, apperrors.Internal(err)
	}

	if req.Name != nil {
		department.Name = *req.Name
	}
	if req.Description != nil {
		department.Description = *req.Description
	}

	if err := s.departments.Update(ctx, department); err != nil {
		return nil, apperrors.Internal(err)
	}
	return department, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.departments.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("department")
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]*model.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return departments, nil
}
