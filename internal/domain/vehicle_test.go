package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizePlate тестирует нормализацию госномера
func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"aa 11 bb", "AA11BB"},
		{"AA-11-BB", "AA-11-BB"},
		{"  12 ab 34  ", "12AB34"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizePlate(tt.input))
	}
}

// TestVehicle_Validate тестирует валидацию транспортного средства
func TestVehicle_Validate(t *testing.T) {
	tests := []struct {
		name    string
		vehicle Vehicle
		wantErr error
	}{
		{
			name:    "корректная машина",
			vehicle: Vehicle{Name: "Van1", Plate: "AA11BB"},
			wantErr: nil,
		},
		{
			name:    "без имени",
			vehicle: Vehicle{Plate: "AA11BB"},
			wantErr: ErrInvalidVehicleData,
		},
		{
			name:    "без госномера",
			vehicle: Vehicle{Name: "Van1"},
			wantErr: ErrInvalidPlate,
		},
		{
			name:    "слишком короткий госномер",
			vehicle: Vehicle{Name: "Van1", Plate: "A1"},
			wantErr: ErrInvalidPlate,
		},
		{
			name:    "слишком длинный госномер",
			vehicle: Vehicle{Name: "Van1", Plate: "AAAAAAAAAAAAAAAAAAAAA"},
			wantErr: ErrInvalidPlate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.vehicle.Validate()

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestVehicle_Validate_NormalizesPlate проверяет нормализацию при валидации
func TestVehicle_Validate_NormalizesPlate(t *testing.T) {
	vehicle := Vehicle{Name: "Van1", Plate: "aa 11 bb"}

	assert.NoError(t, vehicle.Validate())
	assert.Equal(t, "AA11BB", vehicle.Plate)
}
