package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type vehicleRepository struct {
	db DB
}

func NewVehicleRepository(db DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, make, model, name, plate, next_service_date, next_inspection_date, photo_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	vehicle.ID = uuid.New()
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = time.Now()

	// Нормализуем госномер перед сохранением
	vehicle.Plate = domain.NormalizePlate(vehicle.Plate)

	_, err := r.db.Exec(ctx, query,
		vehicle.ID,
		vehicle.Make,
		vehicle.Model,
		vehicle.Name,
		vehicle.Plate,
		vehicle.NextServiceDate,
		vehicle.NextInspectionDate,
		vehicle.PhotoPath,
		vehicle.CreatedAt,
		vehicle.UpdatedAt,
	)

	if err != nil {
		if uniqueViolation(err, "vehicles_plate_key") {
			return domain.ErrVehicleAlreadyExists
		}
		return err
	}

	return nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	query := `
		SELECT id, make, model, name, plate, next_service_date, next_inspection_date, photo_path, created_at, updated_at
		FROM vehicles
		WHERE id = $1
	`

	vehicle := &domain.Vehicle{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&vehicle.ID,
		&vehicle.Make,
		&vehicle.Model,
		&vehicle.Name,
		&vehicle.Plate,
		&vehicle.NextServiceDate,
		&vehicle.NextInspectionDate,
		&vehicle.PhotoPath,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}

	return vehicle, nil
}

func (r *vehicleRepository) GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	query := `
		SELECT id, make, model, name, plate, next_service_date, next_inspection_date, photo_path, created_at, updated_at
		FROM vehicles
		WHERE plate = $1
	`

	normalized := domain.NormalizePlate(plate)

	vehicle := &domain.Vehicle{}
	err := r.db.QueryRow(ctx, query, normalized).Scan(
		&vehicle.ID,
		&vehicle.Make,
		&vehicle.Model,
		&vehicle.Name,
		&vehicle.Plate,
		&vehicle.NextServiceDate,
		&vehicle.NextInspectionDate,
		&vehicle.PhotoPath,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}

	return vehicle, nil
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET make = $2, model = $3, name = $4, plate = $5, next_service_date = $6, next_inspection_date = $7, photo_path = $8, updated_at = $9
		WHERE id = $1
	`

	vehicle.UpdatedAt = time.Now()
	vehicle.Plate = domain.NormalizePlate(vehicle.Plate)

	result, err := r.db.Exec(ctx, query,
		vehicle.ID,
		vehicle.Make,
		vehicle.Model,
		vehicle.Name,
		vehicle.Plate,
		vehicle.NextServiceDate,
		vehicle.NextInspectionDate,
		vehicle.PhotoPath,
		vehicle.UpdatedAt,
	)

	if err != nil {
		if uniqueViolation(err, "vehicles_plate_key") {
			return domain.ErrVehicleAlreadyExists
		}
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}

	return nil
}

func (r *vehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM vehicles WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}

	return nil
}

func (r *vehicleRepository) List(ctx context.Context, limit, offset int) ([]*domain.Vehicle, error) {
	// current_kms - пробег по последнему закрытому рейсу
	query := `
		SELECT v.id, v.make, v.model, v.name, v.plate, v.next_service_date, v.next_inspection_date, v.photo_path, v.created_at, v.updated_at,
			(SELECT r.arrival_kms FROM rounds r
			 WHERE r.vehicle_id = v.id AND r.status = 'CLOSED'
			 ORDER BY r.arrival_at DESC LIMIT 1) AS current_kms
		FROM vehicles v
		ORDER BY v.name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		vehicle := &domain.Vehicle{}
		err := rows.Scan(
			&vehicle.ID,
			&vehicle.Make,
			&vehicle.Model,
			&vehicle.Name,
			&vehicle.Plate,
			&vehicle.NextServiceDate,
			&vehicle.NextInspectionDate,
			&vehicle.PhotoPath,
			&vehicle.CreatedAt,
			&vehicle.UpdatedAt,
			&vehicle.CurrentKms,
		)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, nil
}

func (r *vehicleRepository) ListAvailable(ctx context.Context) ([]*domain.Vehicle, error) {
	// Транспортное средство с открытым рейсом недоступно для нового рейса
	query := `
		SELECT id, make, model, name, plate, next_service_date, next_inspection_date, photo_path, created_at, updated_at
		FROM vehicles
		WHERE id NOT IN (SELECT vehicle_id FROM rounds WHERE status = 'OPEN')
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		vehicle := &domain.Vehicle{}
		err := rows.Scan(
			&vehicle.ID,
			&vehicle.Make,
			&vehicle.Model,
			&vehicle.Name,
			&vehicle.Plate,
			&vehicle.NextServiceDate,
			&vehicle.NextInspectionDate,
			&vehicle.PhotoPath,
			&vehicle.CreatedAt,
			&vehicle.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, nil
}
