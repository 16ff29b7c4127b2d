package round

import (
	"context"
	"fmt"
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
	RemoveAll(relPaths []string) error
}

// AvailabilityCache инвалидирует кэш свободных машин.
// Открытие и закрытие рейса меняют доступность без мутации vehicles.
type AvailabilityCache interface {
	InvalidateAvailable(ctx context.Context)
}

// Photo - загружаемая фотография
type Photo struct {
	Filename string
	Data     io.Reader
}

// StartRequest - запрос на открытие рейса
type StartRequest struct {
	VehicleID    uuid.UUID `json:"vehicle_id" validate:"required"`
	Destination  string    `json:"destination" validate:"required"`
	DepartureKms float64   `json:"departure_kms" validate:"required"`
	Companions   string    `json:"companions,omitempty"`
	Photos       []Photo   `json:"-"`
}

// CloseRequest - запрос на закрытие рейса
type CloseRequest struct {
	ArrivalKms float64 `json:"arrival_kms" validate:"required"`
	Photos     []Photo `json:"-"`
}

// EditRequest - запрос на правку открытого рейса.
// Новые фотографии замещают весь прежний набор отправления.
type EditRequest struct {
	Destination  string     `json:"destination"`
	DepartureAt  *time.Time `json:"departure_at,omitempty"`
	DepartureKms *float64   `json:"departure_kms,omitempty"`
	Companions   *string    `json:"companions,omitempty"`
	Photos       []Photo    `json:"-"`
}

// AdminEditRequest - административная правка рейса. Помимо полей,
// доступных водителю, администратор может переназначить водителя и
// машину и поправить данные прибытия уже закрытого рейса.
// Новые фотографии прибытия замещают весь прежний набор прибытия.
type AdminEditRequest struct {
	EditRequest
	DriverID      *uuid.UUID `json:"driver_id,omitempty"`
	VehicleID     *uuid.UUID `json:"vehicle_id,omitempty"`
	ArrivalAt     *time.Time `json:"arrival_at,omitempty"`
	ArrivalKms    *float64   `json:"arrival_kms,omitempty"`
	ArrivalPhotos []Photo    `json:"-"`
}

// Service содержит бизнес-логику рейсов
type Service struct {
	roundRepo    repository.RoundRepository
	vehicleRepo  repository.VehicleRepository
	userRepo     repository.UserRepository
	photos       PhotoStore
	availability AvailabilityCache
	logger       logger.Logger
}

// NewService создает новый экземпляр RoundService
func NewService(
	roundRepo repository.RoundRepository,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	photos PhotoStore,
	availability AvailabilityCache,
	logger logger.Logger,
) *Service {
	return &Service{
		roundRepo:    roundRepo,
		vehicleRepo:  vehicleRepo,
		userRepo:     userRepo,
		photos:       photos,
		availability: availability,
		logger:       logger,
	}
}

// Start открывает новый рейс для водителя.
// У водителя и у машины может быть не более одного открытого рейса:
// предварительные проверки дают понятную ошибку, а частичные уникальные
// индексы в БД закрывают гонку между конкурентными запросами.
func (s *Service) Start(ctx context.Context, driverID uuid.UUID, req *StartRequest) (*domain.Round, error) {
	if _, err := s.roundRepo.GetOpenByDriver(ctx, driverID); err == nil {
		return nil, domain.ErrDriverHasOpenRound
	} else if err != domain.ErrRoundNotFound {
		return nil, fmt.Errorf("failed to check driver round: %w", err)
	}

	if _, err := s.vehicleRepo.GetByID(ctx, req.VehicleID); err != nil {
		return nil, err
	}

	if _, err := s.roundRepo.GetOpenByVehicle(ctx, req.VehicleID); err == nil {
		return nil, domain.ErrVehicleInUse
	} else if err != domain.ErrRoundNotFound {
		return nil, fmt.Errorf("failed to check vehicle round: %w", err)
	}

	photoPaths, err := s.savePhotos(photostore.CategoryDeparture, req.Photos)
	if err != nil {
		return nil, err
	}

	round := &domain.Round{
		DriverID:        driverID,
		VehicleID:       req.VehicleID,
		Destination:     req.Destination,
		DepartureAt:     time.Now(),
		DepartureKms:    req.DepartureKms,
		Companions:      req.Companions,
		DeparturePhotos: photoPaths,
	}

	if err := round.Validate(); err != nil {
		_ = s.photos.RemoveAll(photoPaths)
		return nil, err
	}

	if err := s.roundRepo.Create(ctx, round); err != nil {
		_ = s.photos.RemoveAll(photoPaths)
		return nil, err
	}

	s.availability.InvalidateAvailable(ctx)

	s.logger.Info("Round started", map[string]interface{}{
		"round_id":   round.ID,
		"driver_id":  driverID,
		"vehicle_id": req.VehicleID,
	})

	return round, nil
}

// Close закрывает открытый рейс водителя.
// Водитель может закрыть только собственный рейс, показания одометра
// не могут уменьшаться.
func (s *Service) Close(ctx context.Context, driverID, roundID uuid.UUID, req *CloseRequest) (*domain.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}

	if round.DriverID != driverID {
		return nil, domain.ErrForbidden
	}

	if err := round.ValidateClose(req.ArrivalKms); err != nil {
		return nil, err
	}

	photoPaths, err := s.savePhotos(photostore.CategoryArrival, req.Photos)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	round.ArrivalAt = &now
	round.ArrivalKms = &req.ArrivalKms
	round.ArrivalPhotos = photoPaths

	if err := s.roundRepo.Close(ctx, round); err != nil {
		_ = s.photos.RemoveAll(photoPaths)
		return nil, err
	}

	s.availability.InvalidateAvailable(ctx)

	s.logger.Info("Round closed", map[string]interface{}{
		"round_id":    round.ID,
		"arrival_kms": req.ArrivalKms,
	})

	return round, nil
}

// ForceClose закрывает рейс от имени администратора.
// Проверки владельца и одометра не выполняются: это аварийный сценарий,
// когда водитель недоступен. Время прибытия ставится текущим, показания
// одометра остаются пустыми.
func (s *Service) ForceClose(ctx context.Context, roundID uuid.UUID) (*domain.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}

	if !round.IsOpen() {
		return nil, domain.ErrRoundAlreadyClosed
	}

	now := time.Now()
	round.ArrivalAt = &now
	round.ArrivalKms = nil
	round.ArrivalPhotos = []string{}

	if err := s.roundRepo.Close(ctx, round); err != nil {
		return nil, err
	}

	s.availability.InvalidateAvailable(ctx)

	s.logger.Warn("Round force-closed by admin", map[string]interface{}{
		"round_id":  round.ID,
		"driver_id": round.DriverID,
	})

	return round, nil
}

// EditOpen правит открытый рейс его водителя
func (s *Service) EditOpen(ctx context.Context, driverID, roundID uuid.UUID, req *EditRequest) (*domain.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}

	if round.DriverID != driverID {
		return nil, domain.ErrForbidden
	}

	if !round.IsOpen() {
		return nil, domain.ErrRoundAlreadyClosed
	}

	return s.applyEdit(ctx, round, req, nil)
}

// AdminEdit правит любой рейс, в том числе закрытый.
// Переназначение водителя или машины проверяет, что цель существует;
// конфликт с чужим открытым рейсом ловят частичные уникальные индексы.
func (s *Service) AdminEdit(ctx context.Context, roundID uuid.UUID, req *AdminEditRequest) (*domain.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}

	if req.DriverID != nil {
		if _, err := s.userRepo.GetByID(ctx, *req.DriverID); err != nil {
			return nil, err
		}
		round.DriverID = *req.DriverID
	}
	if req.VehicleID != nil {
		if _, err := s.vehicleRepo.GetByID(ctx, *req.VehicleID); err != nil {
			return nil, err
		}
		round.VehicleID = *req.VehicleID
	}
	if req.ArrivalAt != nil {
		round.ArrivalAt = req.ArrivalAt
	}
	if req.ArrivalKms != nil {
		round.ArrivalKms = req.ArrivalKms
	}

	return s.applyEdit(ctx, round, &req.EditRequest, req.ArrivalPhotos)
}

func (s *Service) applyEdit(ctx context.Context, round *domain.Round, req *EditRequest, arrivalPhotos []Photo) (*domain.Round, error) {
	if req.Destination != "" {
		round.Destination = req.Destination
	}
	if req.DepartureAt != nil {
		round.DepartureAt = *req.DepartureAt
	}
	if req.DepartureKms != nil {
		round.DepartureKms = *req.DepartureKms
	}
	if req.Companions != nil {
		round.Companions = *req.Companions
	}

	if err := round.Validate(); err != nil {
		return nil, err
	}

	// Правка не может опустить пробег прибытия ниже пробега отправления
	if round.ArrivalKms != nil && *round.ArrivalKms < round.DepartureKms {
		return nil, domain.ErrOdometerRegression
	}

	oldDeparture := round.DeparturePhotos
	oldArrival := round.ArrivalPhotos

	var saved []string
	if len(req.Photos) > 0 {
		photoPaths, err := s.savePhotos(photostore.CategoryDeparture, req.Photos)
		if err != nil {
			return nil, err
		}
		round.DeparturePhotos = photoPaths
		saved = append(saved, photoPaths...)
	}
	if len(arrivalPhotos) > 0 {
		photoPaths, err := s.savePhotos(photostore.CategoryArrival, arrivalPhotos)
		if err != nil {
			_ = s.photos.RemoveAll(saved)
			return nil, err
		}
		round.ArrivalPhotos = photoPaths
		saved = append(saved, photoPaths...)
	}

	if err := s.roundRepo.Update(ctx, round); err != nil {
		_ = s.photos.RemoveAll(saved)
		return nil, err
	}

	// Прежние наборы удаляем только после успешного обновления записи
	var replaced []string
	if len(req.Photos) > 0 {
		replaced = append(replaced, oldDeparture...)
	}
	if len(arrivalPhotos) > 0 {
		replaced = append(replaced, oldArrival...)
	}
	if len(replaced) > 0 {
		if err := s.photos.RemoveAll(replaced); err != nil {
			s.logger.Warn("Failed to remove replaced round photos", map[string]interface{}{
				"round_id": round.ID,
				"error":    err.Error(),
			})
		}
	}

	s.logger.Info("Round updated", map[string]interface{}{
		"round_id": round.ID,
	})

	return round, nil
}

// Delete удаляет рейс вместе с фотографиями
func (s *Service) Delete(ctx context.Context, roundID uuid.UUID) error {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return err
	}

	if err := s.roundRepo.Delete(ctx, roundID); err != nil {
		return err
	}

	allPhotos := append(append([]string{}, round.DeparturePhotos...), round.ArrivalPhotos...)
	if err := s.photos.RemoveAll(allPhotos); err != nil {
		s.logger.Warn("Failed to remove round photos", map[string]interface{}{
			"round_id": roundID,
			"error":    err.Error(),
		})
	}

	s.availability.InvalidateAvailable(ctx)

	s.logger.Info("Round deleted", map[string]interface{}{
		"round_id": roundID,
	})

	return nil
}

// GetByID возвращает рейс по ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Round, error) {
	return s.roundRepo.GetByID(ctx, id)
}

// GetOpenByDriver возвращает открытый рейс водителя, если он есть
func (s *Service) GetOpenByDriver(ctx context.Context, driverID uuid.UUID) (*domain.Round, error) {
	return s.roundRepo.GetOpenByDriver(ctx, driverID)
}

// List возвращает все рейсы
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Round, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.roundRepo.List(ctx, limit, offset)
}

// ListOpen возвращает открытые рейсы
func (s *Service) ListOpen(ctx context.Context) ([]*domain.Round, error) {
	return s.roundRepo.ListOpen(ctx)
}

// ListClosedByDriver возвращает историю рейсов водителя
func (s *Service) ListClosedByDriver(ctx context.Context, driverID uuid.UUID) ([]*domain.Round, error) {
	return s.roundRepo.ListClosedByDriver(ctx, driverID)
}

// savePhotos сохраняет набор фотографий, откатывая уже записанные при ошибке
func (s *Service) savePhotos(category string, photos []Photo) ([]string, error) {
	paths := []string{}
	for _, photo := range photos {
		relPath, err := s.photos.Save(category, photo.Filename, photo.Data)
		if err != nil {
			_ = s.photos.RemoveAll(paths)
			return nil, err
		}
		paths = append(paths, relPath)
	}
	return paths, nil
}
