package auth

import (
	"context"
	"fmt"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/hash"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/jwt"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/repository"
	"github.com/google/uuid"
)

// RegisterRequest - запрос на регистрацию водителя
type RegisterRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
}

// LoginRequest - запрос на вход
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse - ответ на вход
type LoginResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    string       `json:"expires_at"`
}

// Service содержит бизнес-логику аутентификации
type Service struct {
	userRepo     repository.UserRepository
	tokenService *jwt.TokenService
	hasher       *hash.Hasher
	logger       logger.Logger
}

// NewService создает новый экземпляр AuthService
func NewService(
	userRepo repository.UserRepository,
	tokenService *jwt.TokenService,
	hasher *hash.Hasher,
	logger logger.Logger,
) *Service {
	return &Service{
		userRepo:     userRepo,
		tokenService: tokenService,
		hasher:       hasher,
		logger:       logger,
	}
}

// Register регистрирует нового водителя.
// Публичная регистрация всегда создает роль driver, администраторов
// заводит только другой администратор.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*domain.User, error) {
	s.logger.Info("Registering new user", map[string]interface{}{
		"username": req.Username,
	})

	existingUser, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil && err != domain.ErrUserNotFound {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if existingUser != nil {
		s.logger.Warn("User already exists", map[string]interface{}{
			"username": req.Username,
		})
		return nil, domain.ErrUserAlreadyExists
	}

	if len(req.Password) < 6 {
		return nil, domain.ErrInvalidUserData
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		DisplayName:  req.DisplayName,
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         domain.RoleDriver,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Info("User registered successfully", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	})

	return user, nil
}

// Login аутентифицирует пользователя и возвращает JWT токены
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	s.logger.Info("User login attempt", map[string]interface{}{
		"username": req.Username,
	})

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == domain.ErrUserNotFound {
			s.logger.Warn("Login failed: user not found", map[string]interface{}{
				"username": req.Username,
			})
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Check(user.PasswordHash, req.Password) {
		s.logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, domain.ErrInvalidCredentials
	}

	tokenPair, err := s.tokenService.GenerateTokenPair(user)
	if err != nil {
		s.logger.Error("Failed to generate tokens", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error("Failed to update last login", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})

	return &LoginResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    tokenPair.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// Refresh выдает новую пару токенов по валидному refresh токену
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	claims, err := s.tokenService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	// Пользователь мог быть удален после выдачи токена
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	tokenPair, err := s.tokenService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &LoginResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    tokenPair.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// GetUserByID возвращает пользователя по ID
func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ValidateToken валидирует JWT токен и возвращает claims
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenService.ValidateToken(tokenString)
}

// EnsureAdmin создает администратора по умолчанию, если в системе
// нет ни одного. Вызывается при старте приложения.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	count, err := s.userRepo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}

	if count > 0 {
		return nil
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &domain.User{
		DisplayName:  "Administrator",
		Username:     username,
		PasswordHash: passwordHash,
		Role:         domain.RoleAdmin,
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		// Параллельный инстанс мог успеть первым
		if err == domain.ErrUserAlreadyExists {
			return nil
		}
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	s.logger.Info("Default admin created", map[string]interface{}{
		"username": username,
	})

	return nil
}
