// File: /services/fuelprice_service.go
package services

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// PriceProvider returns the current fuel price per liter. The call is the
// whole contract: one positive number, asynchronously, never failing except
// on context cancellation, so a real pricing feed can slot in unchanged.
type PriceProvider interface {
	FetchPrice(ctx context.Context) (float64, error)
}

// FuelPriceService simulates a pricing feed: a bounded random EUR/L value
// after a fixed artificial delay. Stand-in for a real feed that is not
// publicly available.
type FuelPriceService struct {
	min   float64
	max   float64
	delay time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewFuelPriceService(min, max float64, delay time.Duration) *FuelPriceService {
	if max < min {
		min, max = max, min
	}
	return &FuelPriceService{
		min:   min,
		max:   max,
		delay: delay,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *FuelPriceService) FetchPrice(ctx context.Context) (float64, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
	}

	s.mu.Lock()
	price := s.min + s.rnd.Float64()*(s.max-s.min)
	s.mu.Unlock()

	// Pump displays stop at three decimals.
	return math.Round(price*1000) / 1000, nil
}
