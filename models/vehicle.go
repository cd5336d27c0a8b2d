// File: /models/vehicle.go
package models

import (
	"time"
)

// Vehicle is a fuel-consumption profile. ConsumptionValue is guaranteed
// positive at the binding and validation layers before it is ever persisted.
type Vehicle struct {
	ID               string          `json:"id" gorm:"primaryKey;size:191"`
	UserID           string          `json:"user_id" gorm:"not null;size:191;index"`
	Name             string          `json:"name" gorm:"not null;size:255"`
	FuelType         FuelType        `json:"fuel_type" gorm:"not null;size:20"`
	ConsumptionValue float64         `json:"consumption_value" gorm:"not null"`
	ConsumptionUnit  ConsumptionUnit `json:"consumption_unit" gorm:"not null;size:20"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
