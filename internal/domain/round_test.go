package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validRound() *Round {
	return &Round{
		ID:           uuid.New(),
		DriverID:     uuid.New(),
		VehicleID:    uuid.New(),
		Destination:  "Lisboa",
		DepartureAt:  time.Now(),
		DepartureKms: 12500,
		Status:       RoundStatusOpen,
	}
}

// TestRound_Validate тестирует валидацию рейса
func TestRound_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Round)
		wantErr error
	}{
		{
			name:    "корректный рейс",
			modify:  func(r *Round) {},
			wantErr: nil,
		},
		{
			name:    "без водителя",
			modify:  func(r *Round) { r.DriverID = uuid.Nil },
			wantErr: ErrInvalidRoundData,
		},
		{
			name:    "без машины",
			modify:  func(r *Round) { r.VehicleID = uuid.Nil },
			wantErr: ErrInvalidRoundData,
		},
		{
			name:    "без пункта назначения",
			modify:  func(r *Round) { r.Destination = "" },
			wantErr: ErrInvalidRoundData,
		},
		{
			name:    "без времени выезда",
			modify:  func(r *Round) { r.DepartureAt = time.Time{} },
			wantErr: ErrInvalidRoundData,
		},
		{
			name:    "отрицательный пробег",
			modify:  func(r *Round) { r.DepartureKms = -1 },
			wantErr: ErrInvalidRoundData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round := validRound()
			tt.modify(round)

			err := round.Validate()

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestRound_ValidateClose тестирует проверки закрытия рейса
func TestRound_ValidateClose(t *testing.T) {
	t.Run("закрытие с корректным пробегом", func(t *testing.T) {
		round := validRound()
		assert.NoError(t, round.ValidateClose(12600))
	})

	t.Run("пробег прибытия равен пробегу выезда", func(t *testing.T) {
		round := validRound()
		assert.NoError(t, round.ValidateClose(round.DepartureKms))
	})

	t.Run("одометр не может уменьшаться", func(t *testing.T) {
		round := validRound()
		assert.ErrorIs(t, round.ValidateClose(12499.9), ErrOdometerRegression)
	})

	t.Run("закрытый рейс нельзя закрыть повторно", func(t *testing.T) {
		round := validRound()
		round.Status = RoundStatusClosed
		assert.ErrorIs(t, round.ValidateClose(13000), ErrRoundAlreadyClosed)
	})
}

// TestRound_IsOpen тестирует проверку статуса
func TestRound_IsOpen(t *testing.T) {
	round := validRound()
	assert.True(t, round.IsOpen())

	round.Status = RoundStatusClosed
	assert.False(t, round.IsOpen())
}
