package repository

import (
	"context"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/google/uuid"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	// Create создает нового пользователя
	Create(ctx context.Context, user *domain.User) error

	// GetByID возвращает пользователя по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByUsername возвращает пользователя по логину
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update обновляет данные пользователя
	Update(ctx context.Context, user *domain.User) error

	// Delete удаляет пользователя
	Delete(ctx context.Context, id uuid.UUID) error

	// List возвращает список пользователей с пагинацией
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)

	// CountByRole возвращает число пользователей с указанной ролью
	CountByRole(ctx context.Context, role domain.UserRole) (int, error)

	// UpdateLastLogin обновляет время последнего входа
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// VehicleRepository определяет методы для работы с транспортными средствами
type VehicleRepository interface {
	// Create создает новое транспортное средство
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID возвращает транспортное средство по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)

	// GetByPlate возвращает транспортное средство по госномеру
	GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)

	// Update обновляет данные транспортного средства
	Update(ctx context.Context, vehicle *domain.Vehicle) error

	// Delete удаляет транспортное средство
	Delete(ctx context.Context, id uuid.UUID) error

	// List возвращает все транспортные средства с текущим пробегом
	// (kms прибытия последнего закрытого рейса)
	List(ctx context.Context, limit, offset int) ([]*domain.Vehicle, error)

	// ListAvailable возвращает транспортные средства без открытого рейса
	ListAvailable(ctx context.Context) ([]*domain.Vehicle, error)
}

// RoundRepository определяет методы для работы с рейсами
type RoundRepository interface {
	// Create создает новый рейс со статусом OPEN
	Create(ctx context.Context, round *domain.Round) error

	// GetByID возвращает рейс по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Round, error)

	// GetOpenByDriver возвращает открытый рейс водителя, если есть
	GetOpenByDriver(ctx context.Context, driverID uuid.UUID) (*domain.Round, error)

	// GetOpenByVehicle возвращает открытый рейс транспортного средства, если есть
	GetOpenByVehicle(ctx context.Context, vehicleID uuid.UUID) (*domain.Round, error)

	// Close закрывает рейс: поля прибытия и статус CLOSED устанавливаются
	// одним UPDATE, только если рейс еще OPEN
	Close(ctx context.Context, round *domain.Round) error

	// Update обновляет данные рейса
	Update(ctx context.Context, round *domain.Round) error

	// Delete удаляет рейс
	Delete(ctx context.Context, id uuid.UUID) error

	// List возвращает все рейсы с данными водителя и транспортного средства
	List(ctx context.Context, limit, offset int) ([]*domain.Round, error)

	// ListOpen возвращает все открытые рейсы
	ListOpen(ctx context.Context) ([]*domain.Round, error)

	// ListClosedByDriver возвращает закрытые рейсы водителя
	ListClosedByDriver(ctx context.Context, driverID uuid.UUID) ([]*domain.Round, error)
}

// IncidentRepository определяет методы для работы с инцидентами
type IncidentRepository interface {
	// Create создает новый инцидент
	Create(ctx context.Context, incident *domain.Incident) error

	// GetByID возвращает инцидент по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Incident, error)

	// Update обновляет данные инцидента
	Update(ctx context.Context, incident *domain.Incident) error

	// UpdateStatus изменяет только статус инцидента
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.IncidentStatus) error

	// Delete удаляет инцидент
	Delete(ctx context.Context, id uuid.UUID) error

	// List возвращает все инциденты с данными заявителя и транспортного средства
	List(ctx context.Context, limit, offset int) ([]*domain.Incident, error)

	// ListByUser возвращает инциденты, о которых сообщил пользователь
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Incident, error)
}
