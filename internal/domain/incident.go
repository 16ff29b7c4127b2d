package domain

import (
	"time"

	"github.com/google/uuid"
)

// IncidentStatus представляет состояние инцидента
type IncidentStatus string

const (
	IncidentStatusOpen       IncidentStatus = "OPEN"        // Ожидает рассмотрения
	IncidentStatusInProgress IncidentStatus = "IN_PROGRESS" // В работе
	IncidentStatusClosed     IncidentStatus = "CLOSED"      // Закрыт
)

// Incident - сообщение о происшествии с транспортным средством
type Incident struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"` // Кто сообщил
	VehicleID   uuid.UUID      `json:"vehicle_id"`
	Description string         `json:"description"`
	ReportedAt  time.Time      `json:"reported_at"`
	Photos      []string       `json:"photos"` // Упорядоченный список путей в фотохранилище
	Status      IncidentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Связанные данные (заполняются join-запросами)
	ReporterName string `json:"reporter_name,omitempty"`
	VehiclePlate string `json:"vehicle_plate,omitempty"`
}

// Validate проверяет корректность данных инцидента
func (i *Incident) Validate() error {
	if i.UserID == uuid.Nil || i.VehicleID == uuid.Nil {
		return ErrInvalidIncidentData
	}
	if i.Description == "" {
		return ErrInvalidIncidentData
	}
	if i.Status != IncidentStatusOpen && i.Status != IncidentStatusInProgress && i.Status != IncidentStatusClosed {
		return ErrInvalidIncidentData
	}
	return nil
}
