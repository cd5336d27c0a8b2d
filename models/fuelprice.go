// File: /models/fuelprice.go
package models

import (
	"time"
)

// FuelPriceData is the price per liter used for estimates. Source records
// whether the value came from the price feed or a user override; a manual
// price survives restarts and suppresses automatic refreshes.
type FuelPriceData struct {
	PricePerLiter float64     `json:"price_per_liter"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Source        PriceSource `json:"source"`
}
