package auth

import (
	"context"
	"testing"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/hash"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/jwt"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository - мок для user repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, role domain.UserRole) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestTokenService() *jwt.TokenService {
	return jwt.NewTokenService("test-secret", 15*time.Minute, 24*time.Hour)
}

// Минимальная стоимость bcrypt, чтобы тесты не тормозили
func newTestHasher() *hash.Hasher {
	return hash.New(4)
}

// TestService_Register тестирует регистрацию водителя
func TestService_Register(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewService(repo, newTestTokenService(), newTestHasher(), logger.NewNoop())

	repo.On("GetByUsername", mock.Anything, "driver1").Return(nil, domain.ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.Register(context.Background(), &RegisterRequest{
		DisplayName: "Driver One",
		Username:    "driver1",
		Password:    "secret123",
	})

	require.NoError(t, err)
	// Публичная регистрация всегда дает роль driver
	assert.Equal(t, domain.RoleDriver, user.Role)
	assert.True(t, newTestHasher().Check(user.PasswordHash, "secret123"))
	repo.AssertExpectations(t)
}

// TestService_Register_Duplicate тестирует повторную регистрацию
func TestService_Register_Duplicate(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewService(repo, newTestTokenService(), newTestHasher(), logger.NewNoop())

	repo.On("GetByUsername", mock.Anything, "driver1").
		Return(&domain.User{ID: uuid.New(), Username: "driver1"}, nil)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		DisplayName: "Driver One",
		Username:    "driver1",
		Password:    "secret123",
	})

	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestService_Login тестирует вход и выдачу токенов
func TestService_Login(t *testing.T) {
	repo := new(MockUserRepository)
	tokenService := newTestTokenService()
	svc := NewService(repo, tokenService, newTestHasher(), logger.NewNoop())

	passwordHash, err := newTestHasher().Hash("secret123")
	require.NoError(t, err)

	user := &domain.User{
		ID:           uuid.New(),
		DisplayName:  "Driver One",
		Username:     "driver1",
		PasswordHash: passwordHash,
		Role:         domain.RoleDriver,
	}

	repo.On("GetByUsername", mock.Anything, "driver1").Return(user, nil)
	repo.On("UpdateLastLogin", mock.Anything, user.ID).Return(nil)

	response, err := svc.Login(context.Background(), &LoginRequest{
		Username: "driver1",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	assert.NotEmpty(t, response.RefreshToken)

	claims, err := tokenService.ValidateToken(response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleDriver, claims.Role)
	repo.AssertExpectations(t)
}

// TestService_Login_InvalidPassword тестирует неверный пароль
func TestService_Login_InvalidPassword(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewService(repo, newTestTokenService(), newTestHasher(), logger.NewNoop())

	passwordHash, err := newTestHasher().Hash("secret123")
	require.NoError(t, err)

	repo.On("GetByUsername", mock.Anything, "driver1").Return(&domain.User{
		ID:           uuid.New(),
		Username:     "driver1",
		PasswordHash: passwordHash,
		Role:         domain.RoleDriver,
	}, nil)

	_, err = svc.Login(context.Background(), &LoginRequest{
		Username: "driver1",
		Password: "wrong",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

// TestService_Login_UnknownUser тестирует вход несуществующего пользователя.
// Ответ не должен выдавать, существует ли логин.
func TestService_Login_UnknownUser(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewService(repo, newTestTokenService(), newTestHasher(), logger.NewNoop())

	repo.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Username: "ghost",
		Password: "whatever",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

// TestService_Refresh тестирует обновление пары токенов
func TestService_Refresh(t *testing.T) {
	repo := new(MockUserRepository)
	tokenService := newTestTokenService()
	svc := NewService(repo, tokenService, newTestHasher(), logger.NewNoop())

	user := &domain.User{
		ID:       uuid.New(),
		Username: "driver1",
		Role:     domain.RoleDriver,
	}

	pair, err := tokenService.GenerateTokenPair(user)
	require.NoError(t, err)

	repo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	response, err := svc.Refresh(context.Background(), pair.RefreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	repo.AssertExpectations(t)
}

// TestService_Refresh_AccessTokenRejected проверяет, что access токен
// не принимается вместо refresh
func TestService_Refresh_AccessTokenRejected(t *testing.T) {
	repo := new(MockUserRepository)
	tokenService := newTestTokenService()
	svc := NewService(repo, tokenService, newTestHasher(), logger.NewNoop())

	pair, err := tokenService.GenerateTokenPair(&domain.User{
		ID:       uuid.New(),
		Username: "driver1",
		Role:     domain.RoleDriver,
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)

	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

// TestService_EnsureAdmin тестирует создание начального администратора
func TestService_EnsureAdmin(t *testing.T) {
	t.Run("администратора нет - создается", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewService(repo, newTestTokenService(), newTestHasher(), logger.NewNoop())

		repo.On("CountByRole", mock.Anything, domain.RoleAdmin).Return(0, nil)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Role == domain.RoleAdmin && u.Username == "admin"
		})).Return(nil)

		require.NoError(t, svc.EnsureAdmin(context.Background(), "admin", "admin123"))
		repo.AssertExpectations(t)
	})

	t.Run("администратор уже есть - ничего не делается", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewService(repo, newTestTokenService(), newTestHasher(), logger.NewNoop())

		repo.On("CountByRole", mock.Anything, domain.RoleAdmin).Return(1, nil)

		require.NoError(t, svc.EnsureAdmin(context.Background(), "admin", "admin123"))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
