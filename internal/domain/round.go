package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoundStatus представляет состояние рейса
type RoundStatus string

const (
	RoundStatusOpen   RoundStatus = "OPEN"   // Рейс в пути, прибытие не зафиксировано
	RoundStatusClosed RoundStatus = "CLOSED" // Рейс завершен
)

// Round - рейс: одна поездка от зафиксированного выезда до зафиксированного прибытия.
// Инварианты: не более одного OPEN рейса на водителя и на транспортное средство.
// Поля прибытия пустые пока рейс открыт и устанавливаются атомарно вместе со статусом.
type Round struct {
	ID              uuid.UUID   `json:"id"`
	DriverID        uuid.UUID   `json:"driver_id"`
	VehicleID       uuid.UUID   `json:"vehicle_id"`
	Destination     string      `json:"destination"`
	DepartureAt     time.Time   `json:"departure_at"`
	DepartureKms    float64     `json:"departure_kms"`
	Companions      string      `json:"companions,omitempty"`
	DeparturePhotos []string    `json:"departure_photos"` // Упорядоченный список путей в фотохранилище
	ArrivalAt       *time.Time  `json:"arrival_at,omitempty"`
	ArrivalKms      *float64    `json:"arrival_kms,omitempty"`
	ArrivalPhotos   []string    `json:"arrival_photos"`
	Status          RoundStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	// Связанные данные (не хранятся в БД, заполняются join-запросами)
	DriverName   string `json:"driver_name,omitempty"`
	VehicleName  string `json:"vehicle_name,omitempty"`
	VehiclePlate string `json:"vehicle_plate,omitempty"`
}

// IsOpen проверяет, открыт ли рейс
func (r *Round) IsOpen() bool {
	return r.Status == RoundStatusOpen
}

// Validate проверяет корректность данных рейса
func (r *Round) Validate() error {
	if r.DriverID == uuid.Nil || r.VehicleID == uuid.Nil {
		return ErrInvalidRoundData
	}
	if r.Destination == "" {
		return ErrInvalidRoundData
	}
	if r.DepartureAt.IsZero() {
		return ErrInvalidRoundData
	}
	if r.DepartureKms < 0 {
		return ErrInvalidRoundData
	}
	return nil
}

// ValidateClose проверяет, что рейс можно закрыть с указанным пробегом.
// Одометр не может уменьшаться: kms прибытия >= kms выезда.
func (r *Round) ValidateClose(arrivalKms float64) error {
	if !r.IsOpen() {
		return ErrRoundAlreadyClosed
	}
	if arrivalKms < r.DepartureKms {
		return ErrOdometerRegression
	}
	return nil
}
