package hospital

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/repository"
	apperrors "github.com/medhaven/hospital-api/pkg/errors"
)

// Service manages the hospital aggregate. The deployment runs a single
// hospital; GetCurrent returns it.
type Service struct {
	hospitals repository.HospitalRepository
}

func NewService(hospitals repository.HospitalRepository) *Service {
	return &Service{hospitals: hospitals}
}

func (s *Service) Create(ctx context.Context, req *model.CreateHospitalRequest) (*model.Hospital, error) {
	if _, err := s.hospitals.GetFirst(ctx); err == nil {
		return nil, apperrors.AlreadyExists("hospital")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hospital := &model.Hospital{
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
	}
	if err := s.hospitals.Create(ctx, hospital); err != nil {
		return nil, apperrors.Internal(err)
	}
	return hospital, nil
}

func (s *Service) GetCurrent(ctx context.Context) (*model.Hospital, error) {
	hospital, err := s.hospitals.GetFirst(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("hospital")
		}
		return nil, apperrors.Internal(err)
	}
	return hospital, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateHospitalRequest) (*model.Hospital, error) {
	hospital, err := s.hospitals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("hospital")
		}
		return nil, apperrors.Internal(err)
	}

	if req.Name != nil {
		hospital.Name = *req.Name
	}
	if req.Address != nil {
		hospital.Address = *req.Address
	}
	if req.Description != nil {
		hospital.Description = *req.Description
	}

	if err := s.hospitals.Update(ctx, hospital); err != nil {
		return nil, apperrors.Internal(err)
	}
	return hospital, nil
}
