package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/hash"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/jwt"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/auth"
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

// Минимальная стоимость bcrypt, чтобы тесты не тормозили
func newTestHasher() *hash.Hasher {
	return hash.New(4)
}

func newTestAuthHandler(repo *MockUserRepository) *AuthHandler {
	tokenService := jwt.NewTokenService("test-secret", 15*time.Minute, 24*time.Hour)
	service := auth.NewService(repo, tokenService, newTestHasher(), logger.NewNoop())
	return NewAuthHandler(service, logger.NewNoop())
}

// TestAuthHandler_Register тестирует регистрацию через HTTP
func TestAuthHandler_Register(t *testing.T) {
	repo := new(MockUserRepository)
	handler := newTestAuthHandler(repo)

	repo.On("GetByUsername", mock.Anything, "driver1").Return(nil, domain.ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	body, _ := json.Marshal(map[string]string{
		"display_name": "Driver One",
		"username":     "driver1",
		"password":     "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Register(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Success bool        `json:"success"`
		Data    domain.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "driver1", response.Data.Username)
	assert.Equal(t, domain.RoleDriver, response.Data.Role)
	repo.AssertExpectations(t)
}

// TestAuthHandler_Register_Duplicate тестирует конфликт логинов
func TestAuthHandler_Register_Duplicate(t *testing.T) {
	repo := new(MockUserRepository)
	handler := newTestAuthHandler(repo)

	repo.On("GetByUsername", mock.Anything, "driver1").
		Return(&domain.User{ID: uuid.New(), Username: "driver1"}, nil)

	body, _ := json.Marshal(map[string]string{
		"display_name": "Driver One",
		"username":     "driver1",
		"password":     "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Register(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
}

// TestAuthHandler_Register_InvalidBody тестирует битый JSON
func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	handler := newTestAuthHandler(new(MockUserRepository))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()

	handler.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestAuthHandler_Login тестирует вход через HTTP
func TestAuthHandler_Login(t *testing.T) {
	repo := new(MockUserRepository)
	handler := newTestAuthHandler(repo)

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

	body, _ := json.Marshal(map[string]string{
		"username": "driver1",
		"password": "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Login(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.NotEmpty(t, response.Data.AccessToken)
	assert.NotEmpty(t, response.Data.RefreshToken)
}

// TestAuthHandler_Login_InvalidCredentials тестирует неверный пароль
func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	repo := new(MockUserRepository)
	handler := newTestAuthHandler(repo)

	passwordHash, err := newTestHasher().Hash("secret123")
	require.NoError(t, err)

	repo.On("GetByUsername", mock.Anything, "driver1").Return(&domain.User{
		ID:           uuid.New(),
		Username:     "driver1",
		PasswordHash: passwordHash,
	}, nil)

	body, _ := json.Marshal(map[string]string{
		"username": "driver1",
		"password": "wrong",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Login(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAuthHandler_Refresh_AccessTokenRejected проверяет, что access токен
// не принимается эндпоинтом обновления
func TestAuthHandler_Refresh_AccessTokenRejected(t *testing.T) {
	repo := new(MockUserRepository)
	tokenService := jwt.NewTokenService("test-secret", 15*time.Minute, 24*time.Hour)
	service := auth.NewService(repo, tokenService, newTestHasher(), logger.NewNoop())
	handler := NewAuthHandler(service, logger.NewNoop())

	pair, err := tokenService.GenerateTokenPair(&domain.User{
		ID:       uuid.New(),
		Username: "driver1",
		Role:     domain.RoleDriver,
	})
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"refresh_token": pair.AccessToken})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Refresh(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAuthHandler_GetMe_NoClaims тестирует запрос без прошедшей аутентификации
func TestAuthHandler_GetMe_NoClaims(t *testing.T) {
	handler := newTestAuthHandler(new(MockUserRepository))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	w := httptest.NewRecorder()

	handler.GetMe(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
