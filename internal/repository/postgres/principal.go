package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/repository"
)

type principalRepository struct {
	BaseRepository
}

func NewPrincipalRepository(base BaseRepository) repository.PrincipalRepository {
	return &principalRepository{base}
}

func (r *principalRepository) Create(ctx context.Context, principal *model.Principal) error {
	query := `
		INSERT INTO principals (
			id, kind, username, email, password_hash, name, surname,
			image_url, status, start_date, hospital_id, department_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	principal.ID = uuid.New()
	principal.CreatedAt = time.Now()
	principal.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			principal.ID,
			principal.Kind,
			principal.Username,
			principal.Email,
			principal.PasswordHash,
			principal.Name,
			principal.Surname,
			principal.ImageURL,
			principal.Status,
			principal.StartDate,
			principal.HospitalID,
			principal.DepartmentID,
			principal.CreatedAt,
			principal.UpdatedAt,
		)
		if err != nil {
			return mapConstraintError(err)
		}
		return nil
	})
}

func (r *principalRepository) Get(ctx context.Context, kind model.PrincipalKind, id uuid.UUID) (*model.Principal, error) {
	query := `
		SELECT * FROM principals
		WHERE id = $1 AND kind = $2
	`

	var principal model.Principal
	if err := r.db.GetContext(ctx, &principal, query, id, kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}

	return &principal, nil
}

func (r *principalRepository) GetByUsername(ctx context.Context, kind model.PrincipalKind, username string) (*model.Principal, error) {
	query := `
		SELECT * FROM principals
		WHERE username = $1 AND kind = $2
	`

	var principal model.Principal
	if err := r.db.GetContext(ctx, &principal, query, username, kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get principal by username: %w", err)
	}

	return &principal, nil
}

func (r *principalRepository) GetByRefreshToken(ctx context.Context, kind model.PrincipalKind, token string) (*model.Principal, error) {
	query := `
		SELECT * FROM principals
		WHERE refresh_token = $1 AND kind = $2
	`

	var principal model.Principal
	if err := r.db.GetContext(ctx, &principal, query, token, kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get principal by refresh token: %w", err)
	}

	return &principal, nil
}

func (r *principalRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM principals
			WHERE (username = $1 OR email = $2)
			AND ($3::uuid IS NULL OR id != $3)
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username, email, excludeID); err != nil {
		return false, fmt.Errorf("failed to check principal uniqueness: %w", err)
	}

	return exists, nil
}

func (r *principalRepository) ExistsActive(ctx context.Context, kind model.PrincipalKind) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM principals
			WHERE kind = $1 AND deleted_at IS NULL
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, kind); err != nil {
		return false, fmt.Errorf("failed to check active principal: %w", err)
	}

	return exists, nil
}

func (r *principalRepository) Update(ctx context.Context, principal *model.Principal) error {
	query := `
		UPDATE principals SET
			username = $1,
			email = $2,
			password_hash = $3,
			name = $4,
			surname = $5,
			image_url = $6,
			department_id = $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		principal.Username,
		principal.Email,
		principal.PasswordHash,
		principal.Name,
		principal.Surname,
		principal.ImageURL,
		principal.DepartmentID,
		time.Now(),
		principal.ID,
	)
	if err != nil {
		return mapConstraintError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SoftDelete flips the lifecycle state in a single statement so status and the
// deleted marker can never diverge. The hospital attachment is cleared in the
// same write for administrators.
func (r *principalRepository) SoftDelete(ctx context.Context, id uuid.UUID, endDate time.Time, clearHospital bool) error {
	query := `
		UPDATE principals SET
			status = $1,
			deleted_at = $2,
			end_date = $2,
			hospital_id = CASE WHEN $3 THEN NULL ELSE hospital_id END,
			updated_at = $2
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, model.StatusOnLeave, endDate, clearHospital, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete principal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Restore reverses a soft delete, re-attaching the hospital for administrators.
// The partial unique index on active administrators rejects a racing restore.
func (r *principalRepository) Restore(ctx context.Context, id uuid.UUID, startDate time.Time, hospitalID *uuid.UUID) error {
	query := `
		UPDATE principals SET
			status = $1,
			deleted_at = NULL,
			start_date = $2,
			end_date = NULL,
			hospital_id = COALESCE($3, hospital_id),
			updated_at = $2
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, model.StatusActive, startDate, hospitalID, id)
	if err != nil {
		return mapConstraintError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *principalRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		UPDATE principals SET
			refresh_token = $1,
			refresh_token_expires_at = $2,
			updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, token, expiresAt, time.Now(), id)
	if err != nil {
		return mapConstraintError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *principalRepository) List(ctx context.Context, kind model.PrincipalKind, includeDeleted bool) ([]*model.Principal, error) {
	query := `
		SELECT * FROM principals
		WHERE kind = $1
	`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	query += " ORDER BY created_at ASC"

	var principals []*model.Principal
	if err := r.db.SelectContext(ctx, &principals, query, kind); err != nil {
		return nil, fmt.Errorf("failed to list principals: %w", err)
	}

	return principals, nil
}
