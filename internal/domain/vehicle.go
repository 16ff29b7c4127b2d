package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vehicle - транспортное средство автопарка
type Vehicle struct {
	ID                 uuid.UUID  `json:"id"`
	Make               string     `json:"make,omitempty"`
	Model              string     `json:"model,omitempty"`
	Name               string     `json:"name"`  // Отображаемое имя ("Van1")
	Plate              string     `json:"plate"` // Госномер (уникальный)
	NextServiceDate    *time.Time `json:"next_service_date,omitempty"`
	NextInspectionDate *time.Time `json:"next_inspection_date,omitempty"`
	PhotoPath          string     `json:"photo_path,omitempty"` // Относительный путь в фотохранилище
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Вычисляемые данные (не хранятся в БД, заполняются при необходимости)
	CurrentKms *float64 `json:"current_kms,omitempty"` // Пробег по последнему закрытому рейсу
}

// NormalizePlate нормализует госномер (убирает пробелы, приводит к верхнему регистру)
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.ReplaceAll(plate, " ", ""))
}

// Validate проверяет корректность данных транспортного средства
func (v *Vehicle) Validate() error {
	if v.Name == "" {
		return ErrInvalidVehicleData
	}
	if v.Plate == "" {
		return ErrInvalidPlate
	}
	v.Plate = NormalizePlate(v.Plate)

	if len(v.Plate) < 4 || len(v.Plate) > 20 {
		return ErrInvalidPlate
	}
	return nil
}
