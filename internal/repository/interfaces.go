package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medhaven/hospital-api/internal/model"
)

// ErrNotFound is returned by lookups that match no row. Services translate it
// into their typed failures.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	// PrincipalRepository is the credential store for every principal kind.
	// Lookups are kind-scoped except ExistsByUsernameOrEmail, which probes
	// uniqueness across the union of all kinds.
	PrincipalRepository interface {
		Create(ctx context.Context, principal *model.Principal) error
		Get(ctx context.Context, kind model.PrincipalKind, id uuid.UUID) (*model.Principal, error)
		GetByUsername(ctx context.Context, kind model.PrincipalKind, username string) (*model.Principal, error)
		GetByRefreshToken(ctx context.Context, kind model.PrincipalKind, token string) (*model.Principal, error)
		ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID *uuid.UUID) (bool, error)
		ExistsActive(ctx context.Context, kind model.PrincipalKind) (bool, error)
		Update(ctx context.Context, principal *model.Principal) error
		SoftDelete(ctx context.Context, id uuid.UUID, endDate time.Time, clearHospital bool) error
		Restore(ctx context.Context, id uuid.UUID, startDate time.Time, hospitalID *uuid.UUID) error
		UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
		List(ctx context.Context, kind model.PrincipalKind, includeDeleted bool) ([]*model.Principal, error)
	}

	HospitalRepository interface {
		Create(ctx context.Context, hospital *model.Hospital) error
		GetFirst(ctx context.Context) (*model.Hospital, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error)
		Update(ctx context.Context, hospital *model.Hospital) error
	}

	DepartmentRepository interface {
		Create(ctx context.Context, department *model.Department) error
		Get(ctx context.Context, id uuid.UUID) (*model.Department, error)
		Update(ctx context.Context, department *model.Department) error
		SoftDelete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Department, error)
	}

	// RoleRepository is the role registry plus membership store.
	RoleRepository interface {
		Create(ctx context.Context, role *model.Role) error
		Get(ctx context.Context, id uuid.UUID) (*model.Role, error)
		GetByName(ctx context.Context, name string) (*model.Role, error)
		Exists(ctx context.Context, name string) (bool, error)
		Update(ctx context.Context, role *model.Role) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Role, error)
		Assign(ctx context.Context, principalID, roleID uuid.UUID) error
		Unassign(ctx context.Context, principalID, roleID uuid.UUID) error
		ListForPrincipal(ctx context.Context, principalID uuid.UUID) ([]string, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
