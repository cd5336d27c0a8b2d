// File: /routes/routes.go
package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fuelroute-api/config"
	"fuelroute-api/controllers"
	"fuelroute-api/middleware"
	"fuelroute-api/services"
)

func SetupCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, planner *services.PlannerService, emailService *services.EmailService) {
	// Controllers
	authController := controllers.NewAuthController(db, cfg.JWTSecret)
	vehicleController := controllers.NewVehicleController(planner)
	tripController := controllers.NewTripController(planner, emailService)
	calculatorController := controllers.NewCalculatorController(db)
	fuelPriceController := controllers.NewFuelPriceController(planner)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public, rate limited against brute force)
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimit(20, 5))
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		// Vehicle routes
		vehicles := protected.Group("/vehicles")
		{
			vehicles.GET("/", vehicleController.GetVehicles)
			vehicles.POST("/", vehicleController.CreateVehicle)
			vehicles.PUT("/:id", vehicleController.UpdateVehicle)
			vehicles.DELETE("/:id", vehicleController.DeleteVehicle)
			vehicles.PUT("/:id/select", vehicleController.SelectVehicle)
		}

		// Trip planning routes
		trip := protected.Group("/trip")
		{
			trip.GET("/", tripController.GetTrip)
			trip.PUT("/search", tripController.UpdateSearch)
			trip.GET("/suggestions", tripController.GetSuggestions)
			trip.PUT("/point", tripController.SetPoint)
			trip.DELETE("/point", tripController.ClearPoint)
			trip.POST("/locate", tripController.Locate)
			trip.GET("/map", tripController.GetMap)
			trip.POST("/share", tripController.Share)
		}

		// Fuel price routes
		fuelPrice := protected.Group("/fuel-price")
		{
			fuelPrice.GET("/", fuelPriceController.GetPrice)
			fuelPrice.POST("/refresh", fuelPriceController.RefreshPrice)
			fuelPrice.PUT("/", fuelPriceController.SetManualPrice)
		}

		// Calculator routes
		calculator := protected.Group("/calculator")
		{
			calculator.POST("/calculate", calculatorController.CalculateTrip)
			calculator.POST("/save", calculatorController.SaveCalculation)
			calculator.GET("/history", calculatorController.GetHistory)
			calculator.DELETE("/history", calculatorController.ClearHistory)
		}
	}
}
