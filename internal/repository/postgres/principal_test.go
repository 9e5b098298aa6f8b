package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/repository"
	apperrors "github.com/medhaven/hospital-api/pkg/errors"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, repository.PrincipalRepository) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewPrincipalRepository(NewBaseRepository(db))
	return mock, repo
}

func principalColumns() []string {
	return []string{
		"id", "kind", "username", "email", "password_hash", "name", "surname",
		"status", "start_date", "created_at", "updated_at",
	}
}

func TestGetPrincipal(t *testing.T) {
	mock, repo := setupMockDB(t)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(principalColumns()).
		AddRow(id.String(), "doctor", "gregory", "gregory@example.com", "hash", "Gregory", "House",
			"active", now, now, now)

	mock.ExpectQuery(`SELECT \* FROM principals`).
		WithArgs(id, model.KindDoctor).
		WillReturnRows(rows)

	p, err := repo.Get(context.Background(), model.KindDoctor, id)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, model.KindDoctor, p.Kind)
	assert.Equal(t, "gregory", p.Username)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPrincipalNotFound(t *testing.T) {
	mock, repo := setupMockDB(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM principals`).
		WithArgs(id, model.KindDoctor).
		WillReturnRows(sqlmock.NewRows(principalColumns()))

	_, err := repo.Get(context.Background(), model.KindDoctor, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestExistsByUsernameOrEmail(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("gregory", "gregory@example.com", nil).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByUsernameOrEmail(context.Background(), "gregory", "gregory@example.com", nil)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreatePrincipalDuplicateUsername(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO principals`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "principals_username_key"})
	mock.ExpectRollback()

	principal := &model.Principal{
		Kind:     model.KindPatient,
		Username: "gregory",
		Email:    "gregory@example.com",
		Status:   model.StatusActive,
	}
	err := repo.Create(context.Background(), principal)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrAlreadyExists, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "DuplicateUsername", appErr.Details[0].Code)
}

func TestSoftDeletePrincipal(t *testing.T) {
	mock, repo := setupMockDB(t)

	id := uuid.New()
	endDate := time.Now()
	mock.ExpectExec(`UPDATE principals SET`).
		WithArgs(model.StatusOnLeave, endDate, true, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SoftDelete(context.Background(), id, endDate, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeletePrincipalNotFound(t *testing.T) {
	mock, repo := setupMockDB(t)

	id := uuid.New()
	endDate := time.Now()
	mock.ExpectExec(`UPDATE principals SET`).
		WithArgs(model.StatusOnLeave, endDate, true, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), id, endDate, true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRestorePrincipalRace(t *testing.T) {
	mock, repo := setupMockDB(t)

	id := uuid.New()
	startDate := time.Now()
	mock.ExpectExec(`UPDATE principals SET`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uniq_active_administrator"})

	err := repo.Restore(context.Background(), id, startDate, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func TestUpdateRefreshToken(t *testing.T) {
	mock, repo := setupMockDB(t)

	id := uuid.New()
	expiresAt := time.Now().Add(168 * time.Hour)
	mock.ExpectExec(`UPDATE principals SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRefreshToken(context.Background(), id, "refresh-token", expiresAt)
	require.NoError(t, err)
}

func TestListPrincipalsExcludesDeleted(t *testing.T) {
	mock, repo := setupMockDB(t)

	now := time.Now()
	rows := sqlmock.NewRows(principalColumns()).
		AddRow(uuid.New().String(), "patient", "one", "one@example.com", "hash", "One", "Only",
			"active", now, now, now)

	mock.ExpectQuery(`SELECT \* FROM principals\s+WHERE kind = \$1 AND deleted_at IS NULL`).
		WithArgs(model.KindPatient).
		WillReturnRows(rows)

	principals, err := repo.List(context.Background(), model.KindPatient, false)
	require.NoError(t, err)
	require.Len(t, principals, 1)
	assert.Equal(t, "one", principals[0].Username)
}
