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

type roleRepository struct {
	BaseRepository
}

func NewRoleRepository(base BaseRepository) repository.RoleRepository {
	return &roleRepository{base}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	query := `
		INSERT INTO roles (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	role.ID = uuid.New()
	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, role.ID, role.Name, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		return mapConstraintError(err)
	}

	return nil
}

func (r *roleRepository) Get(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	query := `SELECT * FROM roles WHERE id = $1`

	var role model.Role
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return &role, nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*model.Role, error) {
	query := `SELECT * FROM roles WHERE name = $1`

	var role model.Role
	if err := r.db.GetContext(ctx, &role, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role by name: %w", err)
	}

	return &role, nil
}

func (r *roleRepository) Exists(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("failed to check role existence: %w", err)
	}

	return exists, nil
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	query := `
		UPDATE roles SET name = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, role.Name, time.Now(), role.ID)
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

func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM principal_roles WHERE role_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete role memberships: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}

		return nil
	})
}

func (r *roleRepository) List(ctx context.Context) ([]*model.Role, error) {
	query := `SELECT * FROM roles ORDER BY name ASC`

	var roles []*model.Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

func (r *roleRepository) Assign(ctx context.Context, principalID, roleID uuid.UUID) error {
	query := `
		INSERT INTO principal_roles (principal_id, role_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (principal_id, role_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, principalID, roleID, time.Now()); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	return nil
}

func (r *roleRepository) Unassign(ctx context.Context, principalID, roleID uuid.UUID) error {
	query := `
		DELETE FROM principal_roles
		WHERE principal_id = $1 AND role_id = $2
	`

	if _, err := r.db.ExecContext(ctx, query, principalID, roleID); err != nil {
		return fmt.Errorf("failed to unassign role: %w", err)
	}

	return nil
}

func (r *roleRepository) ListForPrincipal(ctx context.Context, principalID uuid.UUID) ([]string, error) {
	query := `
		SELECT r.name FROM roles r
		JOIN principal_roles pr ON pr.role_id = r.id
		WHERE pr.principal_id = $1
		ORDER BY r.name ASC
	`

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, principalID); err != nil {
		return nil, fmt.Errorf("failed to list principal roles: %w", err)
	}

	return names, nil
}
