package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// TestUserRepository_Create тестирует создание пользователя
func TestUserRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "Driver One", "driver1", pgxmock.AnyArg(), domain.RoleDriver, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	user := &domain.User{
		DisplayName:  "Driver One",
		Username:     "driver1",
		PasswordHash: "hash",
		Role:         domain.RoleDriver,
	}

	err := repo.Create(context.Background(), user)

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserRepository_Create_DuplicateUsername тестирует конфликт логина
func TestUserRepository_Create_DuplicateUsername(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	err := repo.Create(context.Background(), &domain.User{
		DisplayName:  "Driver One",
		Username:     "driver1",
		PasswordHash: "hash",
		Role:         domain.RoleDriver,
	})

	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserRepository_GetByUsername тестирует поиск по логину
func TestUserRepository_GetByUsername(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT id, display_name, username, password_hash, role, created_at, updated_at, last_login_at`).
		WithArgs("driver1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "display_name", "username", "password_hash", "role", "created_at", "updated_at", "last_login_at",
		}).AddRow(id, "Driver One", "driver1", "hash", domain.RoleDriver, now, now, nil))

	user, err := repo.GetByUsername(context.Background(), "driver1")

	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "driver1", user.Username)
	assert.Nil(t, user.LastLoginAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserRepository_GetByID_NotFound тестирует отсутствие пользователя
func TestUserRepository_GetByID_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	id := uuid.New()

	mock.ExpectQuery(`SELECT id, display_name, username, password_hash, role, created_at, updated_at, last_login_at`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "display_name", "username", "password_hash", "role", "created_at", "updated_at", "last_login_at",
		}))

	_, err := repo.GetByID(context.Background(), id)

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserRepository_Delete_NotFound тестирует удаление несуществующего пользователя
func TestUserRepository_Delete_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	id := uuid.New()

	mock.ExpectExec(`DELETE FROM users`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), id)

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
