// File: /services/mapview.go
package services

import (
	"encoding/json"
	"sync"

	"fuelroute-api/models"
)

// MapView is the render surface the planner pushes display state to. It
// carries no business logic; implementations only place markers, draw the
// route geometry and frame the viewport, so the rendering backend stays
// swappable.
type MapView interface {
	SetMarkers(origin, destination *models.LocationPoint)
	SetRoute(geometry json.RawMessage)
	FitBounds(points []models.LocationPoint)
}

// MapBounds is the viewport rectangle enclosing all current points.
type MapBounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// MapSnapshot is what the browser map consumes: markers, the opaque route
// geometry, and bounds to frame.
type MapSnapshot struct {
	Origin      *models.LocationPoint `json:"origin"`
	Destination *models.LocationPoint `json:"destination"`
	Route       json.RawMessage       `json:"route"`
	Bounds      *MapBounds            `json:"bounds"`
}

// SnapshotMapView implements MapView by keeping the latest display state for
// retrieval over HTTP.
type SnapshotMapView struct {
	mu   sync.Mutex
	snap MapSnapshot
}

func NewSnapshotMapView() *SnapshotMapView {
	return &SnapshotMapView{}
}

func (v *SnapshotMapView) SetMarkers(origin, destination *models.LocationPoint) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snap.Origin = origin
	v.snap.Destination = destination
}

func (v *SnapshotMapView) SetRoute(geometry json.RawMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snap.Route = geometry
}

func (v *SnapshotMapView) FitBounds(points []models.LocationPoint) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(points) == 0 {
		v.snap.Bounds = nil
		return
	}

	bounds := &MapBounds{
		MinLat: points[0].Latitude,
		MaxLat: points[0].Latitude,
		MinLon: points[0].Longitude,
		MaxLon: points[0].Longitude,
	}
	for _, p := range points[1:] {
		if p.Latitude < bounds.MinLat {
			bounds.MinLat = p.Latitude
		}
		if p.Latitude > bounds.MaxLat {
			bounds.MaxLat = p.Latitude
		}
		if p.Longitude < bounds.MinLon {
			bounds.MinLon = p.Longitude
		}
		if p.Longitude > bounds.MaxLon {
			bounds.MaxLon = p.Longitude
		}
	}
	v.snap.Bounds = bounds
}

func (v *SnapshotMapView) Snapshot() MapSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}
