package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHasher_HashAndCheck тестирует хеширование и проверку пароля
func TestHasher_HashAndCheck(t *testing.T) {
	hasher := New(4)

	hashed, err := hasher.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hashed)

	assert.True(t, hasher.Check(hashed, "secret123"))
	assert.False(t, hasher.Check(hashed, "wrong"))
}

// TestNew_InvalidCost тестирует подмену недопустимой стоимости
func TestNew_InvalidCost(t *testing.T) {
	tests := []struct {
		name string
		cost int
	}{
		{name: "ноль", cost: 0},
		{name: "отрицательная", cost: -1},
		{name: "выше максимума", cost: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, DefaultCost, New(tt.cost).cost)
		})
	}
}
