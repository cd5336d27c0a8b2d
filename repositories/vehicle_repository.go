// File: /repositories/vehicle_repository.go
package repositories

import (
	"gorm.io/gorm"

	"fuelroute-api/models"
)

// VehicleRepository is the durable vehicle store. The surface is
// deliberately document-style: list-all, upsert-by-id, delete-by-id. No
// transactions span vehicles.
type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) ListByUser(userID string) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Upsert creates the vehicle or overwrites the document with the same id.
func (r *VehicleRepository) Upsert(vehicle *models.Vehicle) error {
	return r.db.Save(vehicle).Error
}

func (r *VehicleRepository) Delete(userID, vehicleID string) error {
	result := r.db.Where("id = ? AND user_id = ?", vehicleID, userID).Delete(&models.Vehicle{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
