// File: /services/geocoding_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"fuelroute-api/config"
	"fuelroute-api/models"
)

const suggestionLimit = 5

// Geocoder resolves free text to map points and points back to labels.
type Geocoder interface {
	// Search fails open: any remote failure yields an empty suggestion list.
	Search(ctx context.Context, query string) []models.LocationPoint
	// ReverseGeocode always produces a usable label; on failure the label
	// degrades to fixed-precision coordinate text.
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

// GeocodingService wraps the Nominatim HTTP API.
type GeocodingService struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewGeocodingService(cfg *config.Config) *GeocodingService {
	return &GeocodingService{
		baseURL:   strings.TrimRight(cfg.NominatimURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: time.Duration(cfg.SearchTimeoutSec) * time.Second},
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (s *GeocodingService) Search(ctx context.Context, query string) []models.LocationPoint {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	endpoint := fmt.Sprintf("%s/search?format=json&limit=%d&q=%s",
		s.baseURL, suggestionLimit, url.QueryEscape(query))

	var results []nominatimResult
	if err := s.get(ctx, endpoint, &results); err != nil {
		log.WithError(err).WithField("query", query).Warn("geocoding search failed, returning no suggestions")
		return nil
	}

	points := make([]models.LocationPoint, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		points = append(points, models.LocationPoint{
			Latitude:  lat,
			Longitude: lon,
			Label:     r.DisplayName,
		})
	}

	return points
}

func (s *GeocodingService) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	endpoint := fmt.Sprintf("%s/reverse?format=json&lat=%f&lon=%f", s.baseURL, lat, lon)

	var result struct {
		DisplayName string `json:"display_name"`
	}
	if err := s.get(ctx, endpoint, &result); err != nil || result.DisplayName == "" {
		if err != nil {
			log.WithError(err).Warn("reverse geocoding failed, falling back to coordinate label")
		}
		return fmt.Sprintf("%.5f, %.5f", lat, lon)
	}

	return result.DisplayName
}

func (s *GeocodingService) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	// Identification header required by the public provider's usage policy.
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoding provider returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
