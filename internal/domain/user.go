package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole представляет роль пользователя в системе
type UserRole string

const (
	RoleAdmin  UserRole = "admin"  // Администратор автопарка
	RoleDriver UserRole = "driver" // Водитель
)

// User - пользователь системы
// Водитель открывает и закрывает рейсы, администратор управляет всем остальным
type User struct {
	ID           uuid.UUID  `json:"id"`
	DisplayName  string     `json:"display_name"`
	Username     string     `json:"username"` // Уникальный логин
	PasswordHash string     `json:"-"`        // Никогда не возвращаем в JSON
	Role         UserRole   `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate проверяет корректность данных пользователя
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrInvalidUserData
	}
	if u.DisplayName == "" {
		return ErrInvalidUserData
	}
	if u.Role != RoleAdmin && u.Role != RoleDriver {
		return ErrInvalidRole
	}
	return nil
}
