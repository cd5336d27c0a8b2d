// File: /services/routing_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fuelroute-api/config"
	"fuelroute-api/models"
)

var ErrNoRoute = errors.New("no route found between the selected points")

// RouteProvider computes a driving route between two points.
type RouteProvider interface {
	ComputeRoute(ctx context.Context, origin, destination models.LocationPoint) (*models.RouteResult, error)
}

// RoutingService wraps the OSRM HTTP API. Distance and duration are
// normalized (meters to km, seconds to minutes) here so nothing downstream
// ever sees provider-native units.
type RoutingService struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewRoutingService(cfg *config.Config) *RoutingService {
	return &RoutingService{
		baseURL:   strings.TrimRight(cfg.OSRMURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: time.Duration(cfg.RouteTimeoutSec) * time.Second},
	}
}

type osrmResponse struct {
	Code   string      `json:"code"`
	Routes []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64         `json:"distance"` // meters
	Duration float64         `json:"duration"` // seconds
	Geometry json.RawMessage `json:"geometry"`
}

func (s *RoutingService) ComputeRoute(ctx context.Context, origin, destination models.LocationPoint) (*models.RouteResult, error) {
	// OSRM wants lon,lat pairs.
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		s.baseURL,
		origin.Longitude, origin.Latitude,
		destination.Longitude, destination.Latitude,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing provider returned status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, ErrNoRoute
	}

	first := body.Routes[0]
	return &models.RouteResult{
		DistanceKm:  first.Distance / 1000,
		DurationMin: first.Duration / 60,
		Geometry:    first.Geometry,
	}, nil
}
