package postgres

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "github.com/medhaven/hospital-api/pkg/errors"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Constraint names referenced when mapping unique violations to field errors.
const (
	constraintUsername    = "principals_username_key"
	constraintEmail       = "principals_email_key"
	constraintRefresh     = "principals_refresh_token_key"
	constraintActiveAdmin = "uniq_active_administrator"
	constraintRoleName    = "roles_name_key"
)

// mapConstraintError turns a pq unique-violation into a structured AppError so
// the losing writer of a race still surfaces a typed AlreadyExists failure.
func mapConstraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}

	switch pqErr.Constraint {
	case constraintUsername:
		return &apperrors.AppError{
			Code:    apperrors.ErrAlreadyExists,
			Message: "principal already exists",
			Details: []apperrors.FieldError{{
				Code:        "DuplicateUsername",
				Field:       "username",
				Description: "username is already taken",
			}},
		}
	case constraintEmail:
		return &apperrors.AppError{
			Code:    apperrors.ErrAlreadyExists,
			Message: "principal already exists",
			Details: []apperrors.FieldError{{
				Code:        "DuplicateEmail",
				Field:       "email",
				Description: "email is already taken",
			}},
		}
	case constraintActiveAdmin:
		return apperrors.AlreadyExists("administrator")
	case constraintRoleName:
		return apperrors.AlreadyExists("role")
	case constraintRefresh:
		return &apperrors.AppError{
			Code:    apperrors.ErrAlreadyExists,
			Message: "refresh token collision",
			Details: []apperrors.FieldError{{
				Code:        "DuplicateRefreshToken",
				Description: "refresh token is already in use",
			}},
		}
	}
	return err
}
