package vehicle

import (
	"context"
	"io"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/infrastructure/photostore"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/repository"
	"github.com/google/uuid"
)

// PhotoStore - операции с файлами фотографий, нужные сервису
type PhotoStore interface {
	Save(category, filename string, src io.Reader) (string, error)
	Remove(relPath string) error
}

// Photo - загружаемая фотография
type Photo struct {
	Filename string
	Data     io.Reader
}

// CreateRequest - запрос на создание транспортного средства
type CreateRequest struct {
	Make               string     `json:"make"`
	Model              string     `json:"model"`
	Name               string     `json:"name" validate:"required"`
	Plate              string     `json:"plate" validate:"required"`
	NextServiceDate    *time.Time `json:"next_service_date,omitempty"`
	NextInspectionDate *time.Time `json:"next_inspection_date,omitempty"`
	Photo              *Photo     `json:"-"`
}

// UpdateRequest - запрос на изменение транспортного средства
type UpdateRequest struct {
	Make               string     `json:"make"`
	Model              string     `json:"model"`
	Name               string     `json:"name"`
	Plate              string     `json:"plate"`
	NextServiceDate    *time.Time `json:"next_service_date,omitempty"`
	NextInspectionDate *time.Time `json:"next_inspection_date,omitempty"`
	Photo              *Photo     `json:"-"`
	RemovePhoto        bool       `json:"-"`
}

// Service содержит бизнес-логику управления автопарком
type Service struct {
	vehicleRepo repository.VehicleRepository
	photos      PhotoStore
	logger      logger.Logger
}

// NewService создает новый экземпляр VehicleService
func NewService(
	vehicleRepo repository.VehicleRepository,
	photos PhotoStore,
	logger logger.Logger,
) *Service {
	return &Service{
		vehicleRepo: vehicleRepo,
		photos:      photos,
		logger:      logger,
	}
}

// Create создает транспортное средство
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{
		Make:               req.Make,
		Model:              req.Model,
		Name:               req.Name,
		Plate:              domain.NormalizePlate(req.Plate),
		NextServiceDate:    req.NextServiceDate,
		NextInspectionDate: req.NextInspectionDate,
	}

	if err := vehicle.Validate(); err != nil {
		return nil, err
	}

	// Фото сохраняем до вставки, при ошибке вставки подчищаем файл
	if req.Photo != nil {
		relPath, err := s.photos.Save(photostore.CategoryVehicles, req.Photo.Filename, req.Photo.Data)
		if err != nil {
			return nil, err
		}
		vehicle.PhotoPath = relPath
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		if vehicle.PhotoPath != "" {
			_ = s.photos.Remove(vehicle.PhotoPath)
		}
		return nil, err
	}

	s.logger.Info("Vehicle created", map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"plate":      vehicle.Plate,
	})

	return vehicle, nil
}

// GetByID возвращает транспортное средство по ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	return s.vehicleRepo.GetByID(ctx, id)
}

// List возвращает все транспортные средства с текущим пробегом
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Vehicle, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.vehicleRepo.List(ctx, limit, offset)
}

// ListAvailable возвращает машины без открытого рейса
func (s *Service) ListAvailable(ctx context.Context) ([]*domain.Vehicle, error) {
	return s.vehicleRepo.ListAvailable(ctx)
}

// Update изменяет транспортное средство.
// Новая фотография замещает старую, старый файл удаляется.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Make != "" {
		vehicle.Make = req.Make
	}
	if req.Model != "" {
		vehicle.Model = req.Model
	}
	if req.Name != "" {
		vehicle.Name = req.Name
	}
	if req.Plate != "" {
		vehicle.Plate = domain.NormalizePlate(req.Plate)
	}
	if req.NextServiceDate != nil {
		vehicle.NextServiceDate = req.NextServiceDate
	}
	if req.NextInspectionDate != nil {
		vehicle.NextInspectionDate = req.NextInspectionDate
	}

	if err := vehicle.Validate(); err != nil {
		return nil, err
	}

	oldPhoto := vehicle.PhotoPath

	if req.Photo != nil {
		relPath, err := s.photos.Save(photostore.CategoryVehicles, req.Photo.Filename, req.Photo.Data)
		if err != nil {
			return nil, err
		}
		vehicle.PhotoPath = relPath
	} else if req.RemovePhoto {
		vehicle.PhotoPath = ""
	}

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		if req.Photo != nil {
			_ = s.photos.Remove(vehicle.PhotoPath)
		}
		return nil, err
	}

	// Старый файл удаляем только после успешного коммита новой записи
	if oldPhoto != "" && oldPhoto != vehicle.PhotoPath {
		if err := s.photos.Remove(oldPhoto); err != nil {
			s.logger.Warn("Failed to remove old vehicle photo", map[string]interface{}{
				"path":  oldPhoto,
				"error": err.Error(),
			})
		}
	}

	s.logger.Info("Vehicle updated", map[string]interface{}{
		"vehicle_id": vehicle.ID,
	})

	return vehicle, nil
}

// Delete удаляет транспортное средство вместе с фотографией
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.vehicleRepo.Delete(ctx, id); err != nil {
		return err
	}

	if vehicle.PhotoPath != "" {
		if err := s.photos.Remove(vehicle.PhotoPath); err != nil {
			s.logger.Warn("Failed to remove vehicle photo", map[string]interface{}{
				"path":  vehicle.PhotoPath,
				"error": err.Error(),
			})
		}
	}

	s.logger.Info("Vehicle deleted", map[string]interface{}{
		"vehicle_id": id,
	})

	return nil
}
