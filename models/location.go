// File: /models/location.go
package models

// LocationPoint is a resolved place on the map. Points are value types and
// never mutated after selection; replacing a trip endpoint means assigning a
// new point.
type LocationPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
}
