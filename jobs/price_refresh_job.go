// File: /jobs/price_refresh_job.go
package jobs

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"fuelroute-api/services"
)

// PriceRefreshJob periodically refreshes the fuel price of every live
// planner session that still uses the automatic price source. A manual
// override is never touched.
type PriceRefreshJob struct {
	planner *services.PlannerService
	ticker  *time.Ticker
	done    chan bool
}

// NewPriceRefreshJob creates a new fuel price refresh job
func NewPriceRefreshJob(planner *services.PlannerService, interval time.Duration) *PriceRefreshJob {
	return &PriceRefreshJob{
		planner: planner,
		ticker:  time.NewTicker(interval),
		done:    make(chan bool),
	}
}

// Start begins the refresh job
func (j *PriceRefreshJob) Start() {
	log.Info("Fuel price refresh job started")

	go func() {
		for {
			select {
			case <-j.ticker.C:
				j.refresh()
			case <-j.done:
				log.Info("Fuel price refresh job stopped")
				return
			}
		}
	}()
}

// Stop stops the refresh job
func (j *PriceRefreshJob) Stop() {
	j.ticker.Stop()
	j.done <- true
}

func (j *PriceRefreshJob) refresh() {
	sessions := j.planner.Sessions()
	if len(sessions) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, session := range sessions {
		session.RefreshAutoPrice(ctx)
	}
	log.WithField("sessions", len(sessions)).Debug("Fuel price refresh pass completed")
}
