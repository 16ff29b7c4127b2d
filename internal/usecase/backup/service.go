package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/infrastructure/photostore"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/repository"
	"github.com/xuri/excelize/v2"
)

const (
	spreadsheetName = "backup_dados.xlsx"
	photoBackupDir  = "fotos_backup"
	timeLayout      = "2006-01-02 15:04:05"
	nameTimeLayout  = "20060102_1504"

	// Размер страницы при выгрузке таблиц из БД
	pageSize = 500
)

// PhotoStore - операции с файлами фотографий, нужные сервису
type PhotoStore interface {
	Copy(relPath, dstPath string) error
}

// Result - готовый архив резервной копии.
// Cleanup обязан быть вызван после отдачи архива, он убирает
// временные файлы и при успехе, и при ошибке стриминга.
type Result struct {
	ArchivePath string
	Cleanup     func()
}

// Service собирает полную резервную копию системы:
// таблицы в одну книгу xlsx плюс реорганизованные фотографии
// с человекочитаемыми именами.
type Service struct {
	userRepo     repository.UserRepository
	vehicleRepo  repository.VehicleRepository
	roundRepo    repository.RoundRepository
	incidentRepo repository.IncidentRepository
	photos       PhotoStore
	logger       logger.Logger
}

// NewService создает новый экземпляр BackupService
func NewService(
	userRepo repository.UserRepository,
	vehicleRepo repository.VehicleRepository,
	roundRepo repository.RoundRepository,
	incidentRepo repository.IncidentRepository,
	photos PhotoStore,
	logger logger.Logger,
) *Service {
	return &Service{
		userRepo:     userRepo,
		vehicleRepo:  vehicleRepo,
		roundRepo:    roundRepo,
		incidentRepo: incidentRepo,
		photos:       photos,
		logger:       logger,
	}
}

// CreateFull собирает полный архив резервной копии и возвращает путь к нему.
// Промежуточные файлы живут во временном каталоге и удаляются через
// Result.Cleanup. Ошибка копирования отдельной фотографии не прерывает
// сборку: файл пропускается с предупреждением в логе.
func (s *Service) CreateFull(ctx context.Context) (*Result, error) {
	s.logger.Info("Backup started", nil)

	staging, err := os.MkdirTemp("", "frota-backup-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}

	archive, err := s.build(ctx, staging)
	if err != nil {
		_ = os.RemoveAll(staging)
		return nil, err
	}

	s.logger.Info("Backup completed", map[string]interface{}{
		"archive": filepath.Base(archive),
	})

	return &Result{
		ArchivePath: archive,
		Cleanup: func() {
			_ = os.RemoveAll(staging)
			_ = os.Remove(archive)
		},
	}, nil
}

func (s *Service) build(ctx context.Context, staging string) (string, error) {
	users, err := s.listUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load users: %w", err)
	}
	vehicles, err := s.listVehicles(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load vehicles: %w", err)
	}
	rounds, err := s.listRounds(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load rounds: %w", err)
	}
	incidents, err := s.listIncidents(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load incidents: %w", err)
	}

	if err := s.writeSpreadsheet(staging, users, vehicles, rounds, incidents); err != nil {
		return "", err
	}

	if err := s.copyPhotos(staging, vehicles, rounds, incidents); err != nil {
		return "", err
	}

	return s.archive(staging)
}

// writeSpreadsheet пишет все таблицы в одну книгу backup_dados.xlsx
func (s *Service) writeSpreadsheet(staging string, users []*domain.User, vehicles []*domain.Vehicle, rounds []*domain.Round, incidents []*domain.Incident) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeUsersSheet(f, users); err != nil {
		return err
	}
	if err := writeVehiclesSheet(f, vehicles); err != nil {
		return err
	}
	if err := writeRoundsSheet(f, rounds); err != nil {
		return err
	}
	if err := writeIncidentsSheet(f, incidents); err != nil {
		return err
	}

	// Лист по умолчанию не нужен
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SaveAs(filepath.Join(staging, spreadsheetName)); err != nil {
		return fmt.Errorf("failed to save spreadsheet: %w", err)
	}

	return nil
}

func writeUsersSheet(f *excelize.File, users []*domain.User) error {
	const sheet = "Users"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := []interface{}{"ID", "Name", "Username", "Role", "Created At", "Last Login"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, user := range users {
		lastLogin := ""
		if user.LastLoginAt != nil {
			lastLogin = user.LastLoginAt.Format(timeLayout)
		}
		row := []interface{}{
			user.ID.String(),
			user.DisplayName,
			user.Username,
			string(user.Role),
			user.CreatedAt.Format(timeLayout),
			lastLogin,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return nil
}

func writeVehiclesSheet(f *excelize.File, vehicles []*domain.Vehicle) error {
	const sheet = "Vehicles"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := []interface{}{"ID", "Make", "Model", "Name", "Plate", "Next Service", "Next Inspection", "Current Kms"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, vehicle := range vehicles {
		row := []interface{}{
			vehicle.ID.String(),
			vehicle.Make,
			vehicle.Model,
			vehicle.Name,
			vehicle.Plate,
			formatDate(vehicle.NextServiceDate),
			formatDate(vehicle.NextInspectionDate),
			formatKms(vehicle.CurrentKms),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return nil
}

func writeRoundsSheet(f *excelize.File, rounds []*domain.Round) error {
	const sheet = "Rounds"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := []interface{}{
		"ID", "Driver", "Vehicle", "Plate", "Destination", "Departure At", "Departure Kms",
		"Companions", "Arrival At", "Arrival Kms", "Status",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, round := range rounds {
		arrivalAt := ""
		if round.ArrivalAt != nil {
			arrivalAt = round.ArrivalAt.Format(timeLayout)
		}
		row := []interface{}{
			round.ID.String(),
			round.DriverName,
			round.VehicleName,
			round.VehiclePlate,
			round.Destination,
			round.DepartureAt.Format(timeLayout),
			round.DepartureKms,
			round.Companions,
			arrivalAt,
			formatKms(round.ArrivalKms),
			string(round.Status),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return nil
}

func writeIncidentsSheet(f *excelize.File, incidents []*domain.Incident) error {
	const sheet = "Incidents"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := []interface{}{"ID", "Reporter", "Plate", "Description", "Reported At", "Status", "Photos"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, incident := range incidents {
		row := []interface{}{
			incident.ID.String(),
			incident.ReporterName,
			incident.VehiclePlate,
			incident.Description,
			incident.ReportedAt.Format(timeLayout),
			string(incident.Status),
			len(incident.Photos),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return nil
}

// copyPhotos раскладывает копии фотографий по категориям
// с детерминированными человекочитаемыми именами
func (s *Service) copyPhotos(staging string, vehicles []*domain.Vehicle, rounds []*domain.Round, incidents []*domain.Incident) error {
	for _, category := range []string{
		photostore.CategoryVehicles,
		photostore.CategoryDeparture,
		photostore.CategoryArrival,
		photostore.CategoryIncidents,
	} {
		if err := os.MkdirAll(filepath.Join(staging, photoBackupDir, category), 0o755); err != nil {
			return fmt.Errorf("failed to create backup photo dir: %w", err)
		}
	}

	for _, vehicle := range vehicles {
		if vehicle.PhotoPath == "" {
			continue
		}
		name := fmt.Sprintf("%s_%s%s",
			photostore.Sanitize(vehicle.Name),
			photostore.Sanitize(vehicle.Plate),
			ext(vehicle.PhotoPath),
		)
		s.copyPhoto(vehicle.PhotoPath, filepath.Join(staging, photoBackupDir, photostore.CategoryVehicles, name))
	}

	for _, round := range rounds {
		stamp := round.DepartureAt.Format(nameTimeLayout)
		for i, photo := range round.DeparturePhotos {
			name := fmt.Sprintf("Round_%s_%s_%s_departure_%d%s",
				photostore.Sanitize(round.Destination),
				photostore.Sanitize(round.DriverName),
				stamp, i+1, ext(photo),
			)
			s.copyPhoto(photo, filepath.Join(staging, photoBackupDir, photostore.CategoryDeparture, name))
		}
		for i, photo := range round.ArrivalPhotos {
			name := fmt.Sprintf("Round_%s_%s_%s_arrival_%d%s",
				photostore.Sanitize(round.Destination),
				photostore.Sanitize(round.DriverName),
				stamp, i+1, ext(photo),
			)
			s.copyPhoto(photo, filepath.Join(staging, photoBackupDir, photostore.CategoryArrival, name))
		}
	}

	for _, incident := range incidents {
		stamp := incident.ReportedAt.Format(nameTimeLayout)
		desc := truncate(photostore.Sanitize(incident.Description), 25)
		for i, photo := range incident.Photos {
			name := fmt.Sprintf("Incident_%s_%s_%s_%d%s",
				desc,
				photostore.Sanitize(incident.ReporterName),
				stamp, i+1, ext(photo),
			)
			s.copyPhoto(photo, filepath.Join(staging, photoBackupDir, photostore.CategoryIncidents, name))
		}
	}

	return nil
}

// copyPhoto копирует один файл, пропуская его при ошибке.
// Потеря одной фотографии не должна ронять резервную копию целиком.
func (s *Service) copyPhoto(relPath, dstPath string) {
	if err := s.photos.Copy(relPath, dstPath); err != nil {
		s.logger.Warn("Failed to copy photo into backup", map[string]interface{}{
			"path":  relPath,
			"error": err.Error(),
		})
	}
}

// archive упаковывает содержимое staging-каталога в zip.
// Архив создается вне staging, чтобы не попасть в самого себя.
func (s *Service) archive(staging string) (string, error) {
	archiveFile, err := os.CreateTemp("", "frota-backup-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}

	zw := zip.NewWriter(archiveFile)

	err = filepath.Walk(staging, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(staging, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(relPath))
		if err != nil {
			return err
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(w, src)
		return err
	})

	if err == nil {
		err = zw.Close()
	} else {
		_ = zw.Close()
	}

	if closeErr := archiveFile.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(archiveFile.Name())
		return "", fmt.Errorf("failed to build archive: %w", err)
	}

	return archiveFile.Name(), nil
}

func (s *Service) listUsers(ctx context.Context) ([]*domain.User, error) {
	var all []*domain.User
	for offset := 0; ; offset += pageSize {
		page, err := s.userRepo.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func (s *Service) listVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	var all []*domain.Vehicle
	for offset := 0; ; offset += pageSize {
		page, err := s.vehicleRepo.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func (s *Service) listRounds(ctx context.Context) ([]*domain.Round, error) {
	var all []*domain.Round
	for offset := 0; ; offset += pageSize {
		page, err := s.roundRepo.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func (s *Service) listIncidents(ctx context.Context) ([]*domain.Incident, error) {
	var all []*domain.Incident
	for offset := 0; ; offset += pageSize {
		page, err := s.incidentRepo.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatKms(kms *float64) interface{} {
	if kms == nil {
		return ""
	}
	return *kms
}
