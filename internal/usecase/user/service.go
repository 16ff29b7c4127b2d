package user

import (
	"context"
	"fmt"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/hash"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/repository"
	"github.com/google/uuid"
)

// CreateRequest - запрос на создание пользователя администратором
type CreateRequest struct {
	DisplayName string          `json:"display_name" validate:"required"`
	Username    string          `json:"username" validate:"required"`
	Password    string          `json:"password" validate:"required,min=6"`
	Role        domain.UserRole `json:"role,omitempty"`
}

// UpdateRequest - запрос на изменение пользователя.
// Пустой пароль означает "оставить прежний".
type UpdateRequest struct {
	DisplayName string          `json:"display_name"`
	Username    string          `json:"username"`
	Password    string          `json:"password,omitempty"`
	Role        domain.UserRole `json:"role"`
}

// Service содержит бизнес-логику управления пользователями
type Service struct {
	userRepo repository.UserRepository
	hasher   *hash.Hasher
	logger   logger.Logger
}

// NewService создает новый экземпляр UserService
func NewService(userRepo repository.UserRepository, hasher *hash.Hasher, logger logger.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		logger:   logger,
	}
}

// Create создает пользователя с произвольной ролью
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*domain.User, error) {
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
		Role:         req.Role,
	}

	if user.Role == "" {
		user.Role = domain.RoleDriver
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})

	return user, nil
}

// GetByID возвращает пользователя по ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List возвращает список пользователей
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.userRepo.List(ctx, limit, offset)
}

// Update изменяет данные пользователя
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Password != "" {
		if len(req.Password) < 6 {
			return nil, domain.ErrInvalidUserData
		}
		passwordHash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = passwordHash
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User updated", map[string]interface{}{
		"user_id": user.ID,
	})

	return user, nil
}

// Delete удаляет пользователя.
// Администратор не может удалить собственную учетную запись.
func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return domain.ErrSelfDeletion
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("User deleted", map[string]interface{}{
		"user_id":  id,
		"actor_id": actorID,
	})

	return nil
}
