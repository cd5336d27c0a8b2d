// File: /models/calculator.go
package models

import (
	"time"
)

// TripCalculation is derived from route distance, the selected vehicle's
// normalized consumption, and the current fuel price. It is recomputed on
// every input change and never persisted; an absent calculation means "no
// data yet", which is distinct from a zero-cost trip.
type TripCalculation struct {
	NormalizedLPer100 float64 `json:"normalized_l_per_100km"`
	LitersNeeded      float64 `json:"liters_needed"`
	TotalCost         float64 `json:"total_cost"`
	CostPer100Km      float64 `json:"cost_per_100km"`
}

// TripRecord is a calculation the user chose to keep, stored with the inputs
// so history entries stay meaningful when prices or vehicles change later.
type TripRecord struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:191"`
	UserID             string    `json:"user_id" gorm:"not null;size:191;index"`
	RouteName          string    `json:"route_name" gorm:"not null;size:255"`
	DistanceKm         float64   `json:"distance_km" gorm:"not null"`
	PricePerLiter      float64   `json:"price_per_liter" gorm:"not null"`
	ConsumptionLPer100 float64   `json:"consumption_l_per_100km" gorm:"not null"`
	LitersNeeded       float64   `json:"liters_needed" gorm:"not null"`
	TotalCost          float64   `json:"total_cost" gorm:"not null"`
	CreatedAt          time.Time `json:"created_at"`
}
