package incident

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIncidentRepository - мок для incident repository
type MockIncidentRepository struct {
	mock.Mock
}

func (m *MockIncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	args := m.Called(ctx, incident)
	return args.Error(0)
}

func (m *MockIncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Incident), args.Error(1)
}

func (m *MockIncidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	args := m.Called(ctx, incident)
	return args.Error(0)
}

func (m *MockIncidentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.IncidentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockIncidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIncidentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Incident, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Incident), args.Error(1)
}

func (m *MockIncidentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Incident, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Incident), args.Error(1)
}

// MockVehicleRepository - мок для vehicle repository
type MockVehicleRepository struct {
	mock.Mock
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVehicleRepository) List(ctx context.Context, limit, offset int) ([]*domain.Vehicle, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) ListAvailable(ctx context.Context) ([]*domain.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Vehicle), args.Error(1)
}

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

// MockPhotoStore - мок для хранилища фотографий
type MockPhotoStore struct {
	mock.Mock
}

func (m *MockPhotoStore) Save(category, filename string, src io.Reader) (string, error) {
	args := m.Called(category, filename, src)
	return args.String(0), args.Error(1)
}

func (m *MockPhotoStore) RemoveAll(relPaths []string) error {
	args := m.Called(relPaths)
	return args.Error(0)
}

func newTestService(incidentRepo *MockIncidentRepository, vehicleRepo *MockVehicleRepository, photos *MockPhotoStore) *Service {
	return newTestServiceWithUsers(incidentRepo, vehicleRepo, new(MockUserRepository), photos)
}

func newTestServiceWithUsers(incidentRepo *MockIncidentRepository, vehicleRepo *MockVehicleRepository, userRepo *MockUserRepository, photos *MockPhotoStore) *Service {
	return NewService(incidentRepo, vehicleRepo, userRepo, photos, logger.NewNoop())
}

// TestService_Report тестирует регистрацию происшествия
func TestService_Report(t *testing.T) {
	incidentRepo := new(MockIncidentRepository)
	vehicleRepo := new(MockVehicleRepository)
	photos := new(MockPhotoStore)
	svc := newTestService(incidentRepo, vehicleRepo, photos)

	userID := uuid.New()
	vehicleID := uuid.New()

	vehicleRepo.On("GetByID", mock.Anything, vehicleID).
		Return(&domain.Vehicle{ID: vehicleID, Name: "Van1", Plate: "AA11BB"}, nil)
	incidentRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Incident")).Return(nil)

	incident, err := svc.Report(context.Background(), userID, &ReportRequest{
		VehicleID:   vehicleID,
		Description: "Pneu furado",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusOpen, incident.Status)
	assert.Equal(t, userID, incident.UserID)
	assert.WithinDuration(t, time.Now(), incident.ReportedAt, time.Minute)
	incidentRepo.AssertExpectations(t)
}

// TestService_Report_UnknownVehicle тестирует ссылку на несуществующую машину
func TestService_Report_UnknownVehicle(t *testing.T) {
	incidentRepo := new(MockIncidentRepository)
	vehicleRepo := new(MockVehicleRepository)
	photos := new(MockPhotoStore)
	svc := newTestService(incidentRepo, vehicleRepo, photos)

	vehicleID := uuid.New()
	vehicleRepo.On("GetByID", mock.Anything, vehicleID).Return(nil, domain.ErrVehicleNotFound)

	_, err := svc.Report(context.Background(), uuid.New(), &ReportRequest{
		VehicleID:   vehicleID,
		Description: "Pneu furado",
	})

	assert.ErrorIs(t, err, domain.ErrVehicleNotFound)
	incidentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestService_ReportFor тестирует регистрацию происшествия администратором
// от имени указанного пользователя
func TestService_ReportFor(t *testing.T) {
	incidentRepo := new(MockIncidentRepository)
	vehicleRepo := new(MockVehicleRepository)
	userRepo := new(MockUserRepository)
	photos := new(MockPhotoStore)
	svc := newTestServiceWithUsers(incidentRepo, vehicleRepo, userRepo, photos)

	userID := uuid.New()
	vehicleID := uuid.New()

	userRepo.On("GetByID", mock.Anything, userID).
		Return(&domain.User{ID: userID, Role: domain.RoleDriver}, nil)
	vehicleRepo.On("GetByID", mock.Anything, vehicleID).
		Return(&domain.Vehicle{ID: vehicleID, Name: "Van1", Plate: "AA11BB"}, nil)
	incidentRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Incident")).Return(nil)

	incident, err := svc.ReportFor(context.Background(), &AdminReportRequest{
		UserID: userID,
		ReportRequest: ReportRequest{
			VehicleID:   vehicleID,
			Description: "Pneu furado",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, userID, incident.UserID)
	assert.Equal(t, domain.IncidentStatusOpen, incident.Status)
	userRepo.AssertExpectations(t)
	incidentRepo.AssertExpectations(t)
}

// TestService_ReportFor_UnknownUser тестирует ссылку на несуществующего пользователя
func TestService_ReportFor_UnknownUser(t *testing.T) {
	incidentRepo := new(MockIncidentRepository)
	vehicleRepo := new(MockVehicleRepository)
	userRepo := new(MockUserRepository)
	photos := new(MockPhotoStore)
	svc := newTestServiceWithUsers(incidentRepo, vehicleRepo, userRepo, photos)

	userID := uuid.New()
	userRepo.On("GetByID", mock.Anything, userID).Return(nil, domain.ErrUserNotFound)

	_, err := svc.ReportFor(context.Background(), &AdminReportRequest{
		UserID: userID,
		ReportRequest: ReportRequest{
			VehicleID:   uuid.New(),
			Description: "Pneu furado",
		},
	})

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	incidentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestService_UpdateOwn тестирует правку автором: статус возвращается в OPEN
func TestService_UpdateOwn(t *testing.T) {
	incidentRepo := new(MockIncidentRepository)
	vehicleRepo := new(MockVehicleRepository)
	photos := new(MockPhotoStore)
	svc := newTestService(incidentRepo, vehicleRepo, photos)

	userID := uuid.New()
	incidentID := uuid.New()

	incidentRepo.On("GetByID", mock.Anything, incidentID).Return(&domain.Incident{
		ID:          incidentID,
		UserID:      userID,
		VehicleID:   uuid.New(),
		Description: "Pneu furado",
		ReportedAt:  time.Now(),
		Status:      domain.IncidentStatusClosed,
	}, nil)
	incidentRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Incident")).Return(nil)

	incident, err := svc.UpdateOwn(context.Background(), userID, incidentID, &UpdateRequest{
		Description: "Pneu furado e jante riscada",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusOpen, incident.Status)
	assert.Equal(t, "Pneu furado e jante riscada", incident.Description)
}

// TestService_UpdateOwn_Forbidden тестирует правку чужого происшествия
func TestService_UpdateOwn_Forbidden(t *testing.T) {
	incidentRepo := new(MockIncidentRepository)
	vehicleRepo := new(MockVehicleRepository)
	photos := new(MockPhotoStore)
	svc := newTestService(incidentRepo, vehicleRepo, photos)

	incidentID := uuid.New()

	incidentRepo.On("GetByID", mock.Anything, incidentID).Return(&domain.Incident{
		ID:          incidentID,
		UserID:      uuid.New(),
		VehicleID:   uuid.New(),
		Description: "Pneu furado",
		ReportedAt:  time.Now(),
		Status:      domain.IncidentStatusOpen,
	}, nil)

	_, err := svc.UpdateOwn(context.Background(), uuid.New(), incidentID, &UpdateRequest{
		Description: "hack",
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	incidentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// TestService_Update тестирует правку администратором: статус сохраняется
func TestService_Update(t *testing.T) {
	incidentRepo := new(MockIncidentRepository)
	vehicleRepo := new(MockVehicleRepository)
	photos := new(MockPhotoStore)
	svc := newTestService(incidentRepo, vehicleRepo, photos)

	incidentID := uuid.New()

	incidentRepo.On("GetByID", mock.Anything, incidentID).Return(&domain.Incident{
		ID:          incidentID,
		UserID:      uuid.New(),
		VehicleID:   uuid.New(),
		Description: "Pneu furado",
		ReportedAt:  time.Now(),
		Status:      domain.IncidentStatusInProgress,
	}, nil)
	incidentRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Incident")).Return(nil)

	reportedAt := time.Date(2024, 3, 16, 14, 5, 0, 0, time.UTC)
	incident, err := svc.Update(context.Background(), incidentID, &UpdateRequest{
		Description: "Pneu substituido",
		ReportedAt:  &reportedAt,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusInProgress, incident.Status)
	assert.Equal(t, reportedAt, incident.ReportedAt)
}

// TestService_SetStatus тестирует смену статуса
func TestService_SetStatus(t *testing.T) {
	incidentRepo := new(MockIncidentRepository)
	vehicleRepo := new(MockVehicleRepository)
	photos := new(MockPhotoStore)
	svc := newTestService(incidentRepo, vehicleRepo, photos)

	incidentID := uuid.New()
	incidentRepo.On("UpdateStatus", mock.Anything, incidentID, domain.IncidentStatusClosed).Return(nil)

	require.NoError(t, svc.SetStatus(context.Background(), incidentID, domain.IncidentStatusClosed))
	incidentRepo.AssertExpectations(t)
}

// TestService_SetStatus_Invalid тестирует неизвестный статус
func TestService_SetStatus_Invalid(t *testing.T) {
	incidentRepo := new(MockIncidentRepository)
	vehicleRepo := new(MockVehicleRepository)
	photos := new(MockPhotoStore)
	svc := newTestService(incidentRepo, vehicleRepo, photos)

	err := svc.SetStatus(context.Background(), uuid.New(), domain.IncidentStatus("BROKEN"))

	assert.ErrorIs(t, err, domain.ErrInvalidIncidentData)
	incidentRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

// TestService_Delete тестирует удаление происшествия с фотографиями
func TestService_Delete(t *testing.T) {
	incidentRepo := new(MockIncidentRepository)
	vehicleRepo := new(MockVehicleRepository)
	photos := new(MockPhotoStore)
	svc := newTestService(incidentRepo, vehicleRepo, photos)

	incidentID := uuid.New()
	incidentPhotos := []string{"incidencias/a.jpg", "incidencias/b.jpg"}

	incidentRepo.On("GetByID", mock.Anything, incidentID).Return(&domain.Incident{
		ID:     incidentID,
		Photos: incidentPhotos,
		Status: domain.IncidentStatusOpen,
	}, nil)
	incidentRepo.On("Delete", mock.Anything, incidentID).Return(nil)
	photos.On("RemoveAll", incidentPhotos).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), incidentID))
	incidentRepo.AssertExpectations(t)
	photos.AssertExpectations(t)
}
