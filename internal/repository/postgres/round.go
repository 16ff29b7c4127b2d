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

type roundRepository struct {
	db DB
}

func NewRoundRepository(db DB) repository.RoundRepository {
	return &roundRepository{db: db}
}

func (r *roundRepository) Create(ctx context.Context, round *domain.Round) error {
	query := `
		INSERT INTO rounds (id, driver_id, vehicle_id, destination, departure_at, departure_kms, companions, departure_photos, arrival_photos, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	round.ID = uuid.New()
	round.Status = domain.RoundStatusOpen
	round.CreatedAt = time.Now()
	round.UpdatedAt = time.Now()
	if round.DeparturePhotos == nil {
		round.DeparturePhotos = []string{}
	}
	round.ArrivalPhotos = []string{}

	_, err := r.db.Exec(ctx, query,
		round.ID,
		round.DriverID,
		round.VehicleID,
		round.Destination,
		round.DepartureAt,
		round.DepartureKms,
		round.Companions,
		round.DeparturePhotos,
		round.ArrivalPhotos,
		round.Status,
		round.CreatedAt,
		round.UpdatedAt,
	)

	if err != nil {
		// Частичные уникальные индексы ловят конкурентные вставки,
		// которые прошли мимо предварительных проверок сервиса
		if uniqueViolation(err, "rounds_one_open_per_driver") {
			return domain.ErrDriverHasOpenRound
		}
		if uniqueViolation(err, "rounds_one_open_per_vehicle") {
			return domain.ErrVehicleInUse
		}
		return err
	}

	return nil
}

const roundSelect = `
	SELECT r.id, r.driver_id, r.vehicle_id, r.destination, r.departure_at, r.departure_kms, r.companions,
		r.departure_photos, r.arrival_at, r.arrival_kms, r.arrival_photos, r.status, r.created_at, r.updated_at,
		u.display_name AS driver_name, v.name AS vehicle_name, v.plate AS vehicle_plate
	FROM rounds r
	LEFT JOIN users u ON r.driver_id = u.id
	LEFT JOIN vehicles v ON r.vehicle_id = v.id
`

// scanRound читает одну строку рейса вместе с join-данными
func scanRound(row pgx.Row) (*domain.Round, error) {
	round := &domain.Round{}
	err := row.Scan(
		&round.ID,
		&round.DriverID,
		&round.VehicleID,
		&round.Destination,
		&round.DepartureAt,
		&round.DepartureKms,
		&round.Companions,
		&round.DeparturePhotos,
		&round.ArrivalAt,
		&round.ArrivalKms,
		&round.ArrivalPhotos,
		&round.Status,
		&round.CreatedAt,
		&round.UpdatedAt,
		&round.DriverName,
		&round.VehicleName,
		&round.VehiclePlate,
	)
	if err != nil {
		return nil, err
	}
	return round, nil
}

func (r *roundRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Round, error) {
	query := roundSelect + ` WHERE r.id = $1`

	round, err := scanRound(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoundNotFound
		}
		return nil, err
	}

	return round, nil
}

func (r *roundRepository) GetOpenByDriver(ctx context.Context, driverID uuid.UUID) (*domain.Round, error) {
	query := roundSelect + ` WHERE r.driver_id = $1 AND r.status = 'OPEN' LIMIT 1`

	round, err := scanRound(r.db.QueryRow(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoundNotFound
		}
		return nil, err
	}

	return round, nil
}

func (r *roundRepository) GetOpenByVehicle(ctx context.Context, vehicleID uuid.UUID) (*domain.Round, error) {
	query := roundSelect + ` WHERE r.vehicle_id = $1 AND r.status = 'OPEN' LIMIT 1`

	round, err := scanRound(r.db.QueryRow(ctx, query, vehicleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoundNotFound
		}
		return nil, err
	}

	return round, nil
}

func (r *roundRepository) Close(ctx context.Context, round *domain.Round) error {
	// Поля прибытия и статус переключаются одним UPDATE.
	// Условие status='OPEN' гарантирует, что уже закрытый рейс не перезапишется.
	query := `
		UPDATE rounds
		SET arrival_at = $2, arrival_kms = $3, arrival_photos = $4, status = 'CLOSED', updated_at = $5
		WHERE id = $1 AND status = 'OPEN'
	`

	round.UpdatedAt = time.Now()
	if round.ArrivalPhotos == nil {
		round.ArrivalPhotos = []string{}
	}

	result, err := r.db.Exec(ctx, query,
		round.ID,
		round.ArrivalAt,
		round.ArrivalKms,
		round.ArrivalPhotos,
		round.UpdatedAt,
	)

	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRoundAlreadyClosed
	}

	round.Status = domain.RoundStatusClosed

	return nil
}

func (r *roundRepository) Update(ctx context.Context, round *domain.Round) error {
	query := `
		UPDATE rounds
		SET driver_id = $2, vehicle_id = $3, destination = $4, departure_at = $5, departure_kms = $6, companions = $7,
			departure_photos = $8, arrival_at = $9, arrival_kms = $10, arrival_photos = $11, updated_at = $12
		WHERE id = $1
	`

	round.UpdatedAt = time.Now()
	if round.DeparturePhotos == nil {
		round.DeparturePhotos = []string{}
	}
	if round.ArrivalPhotos == nil {
		round.ArrivalPhotos = []string{}
	}

	result, err := r.db.Exec(ctx, query,
		round.ID,
		round.DriverID,
		round.VehicleID,
		round.Destination,
		round.DepartureAt,
		round.DepartureKms,
		round.Companions,
		round.DeparturePhotos,
		round.ArrivalAt,
		round.ArrivalKms,
		round.ArrivalPhotos,
		round.UpdatedAt,
	)

	if err != nil {
		if uniqueViolation(err, "rounds_one_open_per_driver") {
			return domain.ErrDriverHasOpenRound
		}
		if uniqueViolation(err, "rounds_one_open_per_vehicle") {
			return domain.ErrVehicleInUse
		}
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRoundNotFound
	}

	return nil
}

func (r *roundRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM rounds WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRoundNotFound
	}

	return nil
}

func (r *roundRepository) List(ctx context.Context, limit, offset int) ([]*domain.Round, error) {
	query := roundSelect + `
		ORDER BY r.departure_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRounds(rows)
}

func (r *roundRepository) ListOpen(ctx context.Context) ([]*domain.Round, error) {
	query := roundSelect + `
		WHERE r.status = 'OPEN'
		ORDER BY r.departure_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRounds(rows)
}

func (r *roundRepository) ListClosedByDriver(ctx context.Context, driverID uuid.UUID) ([]*domain.Round, error) {
	query := roundSelect + `
		WHERE r.driver_id = $1 AND r.status = 'CLOSED'
		ORDER BY r.arrival_at DESC
	`

	rows, err := r.db.Query(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRounds(rows)
}

func collectRounds(rows pgx.Rows) ([]*domain.Round, error) {
	var rounds []*domain.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}
