// File: /services/calculator.go
package services

import (
	"errors"

	"fuelroute-api/models"
)

// ErrNonPositiveConsumption is returned for consumption values <= 0. A zero
// km-per-liter figure would normalize to an infinite rate, so non-positive
// values are rejected outright instead of being passed through.
var ErrNonPositiveConsumption = errors.New("consumption value must be greater than zero")

var ErrUnknownConsumptionUnit = errors.New("unknown consumption unit")

// NormalizeConsumption converts a vehicle's consumption figure to the
// uniform liters-per-100km basis used by all calculations.
func NormalizeConsumption(value float64, unit models.ConsumptionUnit) (float64, error) {
	if value <= 0 {
		return 0, ErrNonPositiveConsumption
	}

	switch unit {
	case models.LitersPer100Km:
		return value, nil
	case models.KmPerLiter:
		return 100 / value, nil
	default:
		return 0, ErrUnknownConsumptionUnit
	}
}

// ConvertConsumption re-expresses a consumption figure in another unit. The
// two bases are mutual reciprocals scaled by 100, so conversion is its own
// inverse.
func ConvertConsumption(value float64, from, to models.ConsumptionUnit) (float64, error) {
	if value <= 0 {
		return 0, ErrNonPositiveConsumption
	}
	if !from.IsValid() || !to.IsValid() {
		return 0, ErrUnknownConsumptionUnit
	}
	if from == to {
		return value, nil
	}
	return 100 / value, nil
}

// ComputeTrip produces the derived cost figures for a normalized consumption
// rate, a route distance and a fuel price. Pure and deterministic.
func ComputeTrip(normalizedLPer100, distanceKm, pricePerLiter float64) models.TripCalculation {
	litersNeeded := distanceKm * normalizedLPer100 / 100

	return models.TripCalculation{
		NormalizedLPer100: normalizedLPer100,
		LitersNeeded:      litersNeeded,
		TotalCost:         litersNeeded * pricePerLiter,
		CostPer100Km:      normalizedLPer100 * pricePerLiter,
	}
}

// EstimateTrip combines the live inputs into a calculation. It returns nil
// when any input is missing: "no data yet" must stay distinguishable from a
// zero-cost trip.
func EstimateTrip(vehicle *models.Vehicle, route *models.RouteResult, price *models.FuelPriceData) (*models.TripCalculation, error) {
	if vehicle == nil || route == nil || price == nil {
		return nil, nil
	}

	normalized, err := NormalizeConsumption(vehicle.ConsumptionValue, vehicle.ConsumptionUnit)
	if err != nil {
		return nil, err
	}

	calc := ComputeTrip(normalized, route.DistanceKm, price.PricePerLiter)
	return &calc, nil
}
