// File: /repositories/preference_repository.go
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fuelroute-api/models"
)

// PreferenceRepository holds the per-user durable preference entries: the
// serialized vehicle list (fallback copy when the vehicle store is
// unreachable), the selected vehicle id, and the last fuel price. Each key
// is written independently on every corresponding state change; there is no
// transaction across them.
type PreferenceRepository struct {
	rdb *redis.Client
}

func NewPreferenceRepository(rdb *redis.Client) *PreferenceRepository {
	return &PreferenceRepository{rdb: rdb}
}

func vehiclesKey(userID string) string {
	return fmt.Sprintf("user:%s:vehicles", userID)
}

func selectedVehicleKey(userID string) string {
	return fmt.Sprintf("user:%s:selected_vehicle", userID)
}

func fuelPriceKey(userID string) string {
	return fmt.Sprintf("user:%s:fuel_price", userID)
}

func (r *PreferenceRepository) SaveVehicleList(ctx context.Context, userID string, vehicles []models.Vehicle) error {
	data, err := json.Marshal(vehicles)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, vehiclesKey(userID), data, 0).Err()
}

func (r *PreferenceRepository) LoadVehicleList(ctx context.Context, userID string) ([]models.Vehicle, error) {
	data, err := r.rdb.Get(ctx, vehiclesKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var vehicles []models.Vehicle
	if err := json.Unmarshal(data, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *PreferenceRepository) SaveSelectedVehicle(ctx context.Context, userID, vehicleID string) error {
	if vehicleID == "" {
		return r.rdb.Del(ctx, selectedVehicleKey(userID)).Err()
	}
	return r.rdb.Set(ctx, selectedVehicleKey(userID), vehicleID, 0).Err()
}

func (r *PreferenceRepository) LoadSelectedVehicle(ctx context.Context, userID string) (string, error) {
	id, err := r.rdb.Get(ctx, selectedVehicleKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

func (r *PreferenceRepository) SaveFuelPrice(ctx context.Context, userID string, price models.FuelPriceData) error {
	data, err := json.Marshal(price)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, fuelPriceKey(userID), data, 0).Err()
}

// LoadFuelPrice returns nil when no price has been persisted yet.
func (r *PreferenceRepository) LoadFuelPrice(ctx context.Context, userID string) (*models.FuelPriceData, error) {
	data, err := r.rdb.Get(ctx, fuelPriceKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var price models.FuelPriceData
	if err := json.Unmarshal(data, &price); err != nil {
		return nil, err
	}
	return &price, nil
}
