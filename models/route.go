// File: /models/route.go
package models

import (
	"encoding/json"
)

// RouteResult is the unit-normalized outcome of one route computation.
// Distance and duration are converted from provider units (meters, seconds)
// at the adapter boundary. Geometry is an opaque GeoJSON payload that only
// the map view ever interprets. A RouteResult is replaced wholesale on each
// new computation, never mutated in place.
type RouteResult struct {
	DistanceKm  float64         `json:"distance_km"`
	DurationMin float64         `json:"duration_min"`
	Geometry    json.RawMessage `json:"geometry"`
}
