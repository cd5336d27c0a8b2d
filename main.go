// File: /main.go
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"fuelroute-api/config"
	"fuelroute-api/database"
	"fuelroute-api/jobs"
	"fuelroute-api/middleware"
	"fuelroute-api/repositories"
	"fuelroute-api/routes"
	"fuelroute-api/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	// Local durable preference storage
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("Invalid REDIS_URL: ", err)
	}
	rdb := redis.NewClient(redisOpts)

	// Adapters and the planner
	vehicleRepo := repositories.NewVehicleRepository(db)
	prefRepo := repositories.NewPreferenceRepository(rdb)
	geocoder := services.NewGeocodingService(cfg)
	router := services.NewRoutingService(cfg)
	prices := services.NewFuelPriceService(cfg.FuelPriceMin, cfg.FuelPriceMax, time.Duration(cfg.FuelPriceDelayMs)*time.Millisecond)
	emailService := services.NewEmailService(cfg)

	planner := services.NewPlannerService(vehicleRepo, prefRepo, geocoder, router, prices, services.PlannerOptions{
		Debounce:      time.Duration(cfg.SearchDebounceMs) * time.Millisecond,
		SearchTimeout: time.Duration(cfg.SearchTimeoutSec) * time.Second,
		RouteTimeout:  time.Duration(cfg.RouteTimeoutSec) * time.Second,
	})
	defer planner.Close()

	// Set Gin mode based on environment
	if cfg.Port == "8080" { // Development
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	engine := gin.Default()

	// Setup CORS and security middleware
	engine.Use(routes.SetupCORS())
	engine.Use(middleware.SecurityHeaders())

	// Setup routes
	routes.SetupRoutes(engine, db, cfg, planner, emailService)

	// Background fuel price refresh
	refreshJob := jobs.NewPriceRefreshJob(planner, time.Duration(cfg.PriceRefreshMin)*time.Minute)
	refreshJob.Start()
	defer refreshJob.Stop()

	// Start server
	log.Infof("Starting FuelRoute API server on port %s", cfg.Port)
	log.Infof("Health check available at: http://localhost:%s/ping", cfg.Port)

	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
