package cached

import (
	"context"
	"encoding/json"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/redis"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/repository"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
)

const (
	availableCacheKey = "vehicles:available"
	availableCacheTTL = 30 * time.Second
)

// VehicleRepository добавляет кэширование списка свободных машин.
// Список запрашивается на каждом экране начала рейса, поэтому короткий
// TTL плюс инвалидация при мутациях заметно разгружают БД.
type VehicleRepository struct {
	repo  repository.VehicleRepository
	cache *redis.Client
}

// NewVehicleRepository создает новый кэшируемый vehicle repository
func NewVehicleRepository(repo repository.VehicleRepository, cache *redis.Client) *VehicleRepository {
	return &VehicleRepository{
		repo:  repo,
		cache: cache,
	}
}

// ListAvailable возвращает свободные машины (с кэшированием)
func (r *VehicleRepository) ListAvailable(ctx context.Context) ([]*domain.Vehicle, error) {
	// 1. Проверяем кэш
	cachedValue, err := r.cache.Get(ctx, availableCacheKey)
	if err == nil {
		var vehicles []*domain.Vehicle
		if jsonErr := json.Unmarshal([]byte(cachedValue), &vehicles); jsonErr == nil {
			return vehicles, nil
		}
		// Битое значение в кэше - выбрасываем и идем в БД
		_ = r.cache.Del(ctx, availableCacheKey)
	}

	if err != redisv9.Nil {
		// Ошибка кэша не критична, продолжаем работу с БД
	}

	// 2. Cache miss - идем в БД
	vehicles, err := r.repo.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	// 3. Сохраняем результат в кэш
	if data, jsonErr := json.Marshal(vehicles); jsonErr == nil {
		_ = r.cache.Set(ctx, availableCacheKey, data, availableCacheTTL)
	}

	return vehicles, nil
}

// InvalidateAvailable сбрасывает кэш свободных машин.
// Вызывается при открытии и закрытии рейса, когда доступность меняется
// без мутации самой таблицы vehicles.
func (r *VehicleRepository) InvalidateAvailable(ctx context.Context) {
	_ = r.cache.Del(ctx, availableCacheKey)
}

// Create добавляет машину и инвалидирует кэш
func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	if err := r.repo.Create(ctx, vehicle); err != nil {
		return err
	}

	_ = r.cache.Del(ctx, availableCacheKey)

	return nil
}

// GetByID получает машину по ID
func (r *VehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	// Точечные чтения не кэшируем - используются редко
	return r.repo.GetByID(ctx, id)
}

// GetByPlate получает машину по госномеру
func (r *VehicleRepository) GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	return r.repo.GetByPlate(ctx, plate)
}

// Update обновляет машину и инвалидирует кэш
func (r *VehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	if err := r.repo.Update(ctx, vehicle); err != nil {
		return err
	}

	_ = r.cache.Del(ctx, availableCacheKey)

	return nil
}

// Delete удаляет машину и инвалидирует кэш
func (r *VehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = r.cache.Del(ctx, availableCacheKey)

	return nil
}

// List получает все машины
func (r *VehicleRepository) List(ctx context.Context, limit, offset int) ([]*domain.Vehicle, error) {
	// Админский список с пробегом не кэшируем
	return r.repo.List(ctx, limit, offset)
}
