// File: /utils/validators.go
package utils

import (
	"regexp"
)

// Upper bounds keep obviously garbage input out of the calculator; nobody
// drives 10,000 km on one estimate or burns 50 L/100km in a passenger car.
const (
	MaxTripDistanceKm  = 10000
	MaxFuelPrice       = 10
	MaxFuelConsumption = 50
)

func IsValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

func IsValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func IsValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

// IsValidConsumption rejects non-positive figures; a zero consumption would
// normalize to an undefined rate.
func IsValidConsumption(value float64) bool {
	return value > 0 && value <= MaxFuelConsumption
}

func IsValidCalculatorInput(distanceKm, fuelPrice, consumption float64) bool {
	return distanceKm > 0 && distanceKm <= MaxTripDistanceKm &&
		fuelPrice > 0 && fuelPrice <= MaxFuelPrice &&
		IsValidConsumption(consumption)
}
