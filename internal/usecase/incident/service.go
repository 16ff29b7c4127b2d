package incident

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
	RemoveAll(relPaths []string) error
}

// Photo - загружаемая фотография
type Photo struct {
	Filename string
	Data     io.Reader
}

// ReportRequest - заявка о происшествии с машиной
type ReportRequest struct {
	VehicleID   uuid.UUID `json:"vehicle_id" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Photos      []Photo   `json:"-"`
}

// AdminReportRequest - регистрация происшествия администратором
// от имени указанного пользователя
type AdminReportRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	ReportRequest
}

// UpdateRequest - правка происшествия.
// Новые фотографии замещают весь прежний набор.
type UpdateRequest struct {
	VehicleID   *uuid.UUID            `json:"vehicle_id,omitempty"`
	Description string                `json:"description"`
	ReportedAt  *time.Time            `json:"reported_at,omitempty"`
	Status      domain.IncidentStatus `json:"status,omitempty"`
	Photos      []Photo               `json:"-"`
}

// Service содержит бизнес-логику происшествий
type Service struct {
	incidentRepo repository.IncidentRepository
	vehicleRepo  repository.VehicleRepository
	userRepo     repository.UserRepository
	photos       PhotoStore
	logger       logger.Logger
}

// NewService создает новый экземпляр IncidentService
func NewService(
	incidentRepo repository.IncidentRepository,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	photos PhotoStore,
	logger logger.Logger,
) *Service {
	return &Service{
		incidentRepo: incidentRepo,
		vehicleRepo:  vehicleRepo,
		userRepo:     userRepo,
		photos:       photos,
		logger:       logger,
	}
}

// Report регистрирует происшествие от имени пользователя
func (s *Service) Report(ctx context.Context, userID uuid.UUID, req *ReportRequest) (*domain.Incident, error) {
	if _, err := s.vehicleRepo.GetByID(ctx, req.VehicleID); err != nil {
		return nil, err
	}

	photoPaths, err := s.savePhotos(req.Photos)
	if err != nil {
		return nil, err
	}

	incident := &domain.Incident{
		UserID:      userID,
		VehicleID:   req.VehicleID,
		Description: req.Description,
		ReportedAt:  time.Now(),
		Photos:      photoPaths,
		Status:      domain.IncidentStatusOpen,
	}

	if err := incident.Validate(); err != nil {
		_ = s.photos.RemoveAll(photoPaths)
		return nil, err
	}

	if err := s.incidentRepo.Create(ctx, incident); err != nil {
		_ = s.photos.RemoveAll(photoPaths)
		return nil, err
	}

	s.logger.Info("Incident reported", map[string]interface{}{
		"incident_id": incident.ID,
		"user_id":     userID,
		"vehicle_id":  req.VehicleID,
	})

	return incident, nil
}

// ReportFor регистрирует происшествие от имени указанного пользователя.
// Административный путь: автор берется из формы, а не из claims.
func (s *Service) ReportFor(ctx context.Context, req *AdminReportRequest) (*domain.Incident, error) {
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	return s.Report(ctx, req.UserID, &req.ReportRequest)
}

// GetByID возвращает происшествие по ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	return s.incidentRepo.GetByID(ctx, id)
}

// List возвращает все происшествия
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Incident, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.incidentRepo.List(ctx, limit, offset)
}

// ListByUser возвращает происшествия, зарегистрированные пользователем
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Incident, error) {
	return s.incidentRepo.ListByUser(ctx, userID)
}

// Update правит происшествие от имени администратора
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*domain.Incident, error) {
	incident, err := s.incidentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.applyUpdate(ctx, incident, req)
}

// UpdateOwn правит происшествие от имени его автора.
// Правка водителем возвращает статус в OPEN: измененная заявка
// требует повторного рассмотрения.
func (s *Service) UpdateOwn(ctx context.Context, userID, id uuid.UUID, req *UpdateRequest) (*domain.Incident, error) {
	incident, err := s.incidentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if incident.UserID != userID {
		return nil, domain.ErrForbidden
	}

	req.Status = domain.IncidentStatusOpen

	return s.applyUpdate(ctx, incident, req)
}

func (s *Service) applyUpdate(ctx context.Context, incident *domain.Incident, req *UpdateRequest) (*domain.Incident, error) {
	if req.VehicleID != nil {
		if _, err := s.vehicleRepo.GetByID(ctx, *req.VehicleID); err != nil {
			return nil, err
		}
		incident.VehicleID = *req.VehicleID
	}
	if req.Description != "" {
		incident.Description = req.Description
	}
	if req.ReportedAt != nil {
		incident.ReportedAt = *req.ReportedAt
	}
	if req.Status != "" {
		incident.Status = req.Status
	}

	if err := incident.Validate(); err != nil {
		return nil, err
	}

	oldPhotos := incident.Photos

	if len(req.Photos) > 0 {
		photoPaths, err := s.savePhotos(req.Photos)
		if err != nil {
			return nil, err
		}
		incident.Photos = photoPaths
	}

	if err := s.incidentRepo.Update(ctx, incident); err != nil {
		if len(req.Photos) > 0 {
			_ = s.photos.RemoveAll(incident.Photos)
		}
		return nil, err
	}

	if len(req.Photos) > 0 {
		if err := s.photos.RemoveAll(oldPhotos); err != nil {
			s.logger.Warn("Failed to remove replaced incident photos", map[string]interface{}{
				"incident_id": incident.ID,
				"error":       err.Error(),
			})
		}
	}

	s.logger.Info("Incident updated", map[string]interface{}{
		"incident_id": incident.ID,
		"status":      incident.Status,
	})

	return incident, nil
}

// SetStatus переводит происшествие в указанный статус
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status domain.IncidentStatus) error {
	switch status {
	case domain.IncidentStatusOpen, domain.IncidentStatusInProgress, domain.IncidentStatusClosed:
	default:
		return domain.ErrInvalidIncidentData
	}

	if err := s.incidentRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.logger.Info("Incident status changed", map[string]interface{}{
		"incident_id": id,
		"status":      status,
	})

	return nil
}

// Delete удаляет происшествие вместе с фотографиями
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	incident, err := s.incidentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.incidentRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.photos.RemoveAll(incident.Photos); err != nil {
		s.logger.Warn("Failed to remove incident photos", map[string]interface{}{
			"incident_id": id,
			"error":       err.Error(),
		})
	}

	s.logger.Info("Incident deleted", map[string]interface{}{
		"incident_id": id,
	})

	return nil
}

func (s *Service) savePhotos(photos []Photo) ([]string, error) {
	paths := []string{}
	for _, photo := range photos {
		relPath, err := s.photos.Save(photostore.CategoryIncidents, photo.Filename, photo.Data)
		if err != nil {
			_ = s.photos.RemoveAll(paths)
			return nil, err
		}
		paths = append(paths, relPath)
	}
	return paths, nil
}
