package hash

import (
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost - стоимость хеширования по умолчанию (12)
	DefaultCost = 12
)

// Hasher хеширует пароли через bcrypt с настраиваемой стоимостью
type Hasher struct {
	cost int
}

// New создает Hasher. Стоимость вне допустимого диапазона bcrypt
// заменяется значением по умолчанию.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash хеширует пароль
func (h *Hasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Check сравнивает хешированный пароль с plain-text паролем
func (h *Hasher) Check(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
