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

type incidentRepository struct {
	db DB
}

func NewIncidentRepository(db DB) repository.IncidentRepository {
	return &incidentRepository{db: db}
}

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (id, user_id, vehicle_id, description, reported_at, photos, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	incident.ID = uuid.New()
	incident.CreatedAt = time.Now()
	incident.UpdatedAt = time.Now()
	if incident.Photos == nil {
		incident.Photos = []string{}
	}

	_, err := r.db.Exec(ctx, query,
		incident.ID,
		incident.UserID,
		incident.VehicleID,
		incident.Description,
		incident.ReportedAt,
		incident.Photos,
		incident.Status,
		incident.CreatedAt,
		incident.UpdatedAt,
	)

	if err != nil {
		return err
	}

	return nil
}

const incidentSelect = `
	SELECT i.id, i.user_id, i.vehicle_id, i.description, i.reported_at, i.photos, i.status, i.created_at, i.updated_at,
		u.display_name AS reporter_name, v.plate AS vehicle_plate
	FROM incidents i
	LEFT JOIN users u ON i.user_id = u.id
	LEFT JOIN vehicles v ON i.vehicle_id = v.id
`

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	incident := &domain.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.UserID,
		&incident.VehicleID,
		&incident.Description,
		&incident.ReportedAt,
		&incident.Photos,
		&incident.Status,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ReporterName,
		&incident.VehiclePlate,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	query := incidentSelect + ` WHERE i.id = $1`

	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIncidentNotFound
		}
		return nil, err
	}

	return incident, nil
}

func (r *incidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	query := `
		UPDATE incidents
		SET user_id = $2, vehicle_id = $3, description = $4, reported_at = $5, photos = $6, status = $7, updated_at = $8
		WHERE id = $1
	`

	incident.UpdatedAt = time.Now()
	if incident.Photos == nil {
		incident.Photos = []string{}
	}

	result, err := r.db.Exec(ctx, query,
		incident.ID,
		incident.UserID,
		incident.VehicleID,
		incident.Description,
		incident.ReportedAt,
		incident.Photos,
		incident.Status,
		incident.UpdatedAt,
	)

	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrIncidentNotFound
	}

	return nil
}

func (r *incidentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.IncidentStatus) error {
	query := `
		UPDATE incidents
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrIncidentNotFound
	}

	return nil
}

func (r *incidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM incidents WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrIncidentNotFound
	}

	return nil
}

func (r *incidentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Incident, error) {
	query := incidentSelect + `
		ORDER BY i.reported_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectIncidents(rows)
}

func (r *incidentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Incident, error) {
	query := incidentSelect + `
		WHERE i.user_id = $1
		ORDER BY i.reported_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectIncidents(rows)
}

func collectIncidents(rows pgx.Rows) ([]*domain.Incident, error) {
	var incidents []*domain.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}
	return incidents, nil
}
