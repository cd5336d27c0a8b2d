// File: /config/config.go
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	// Remote geo services
	NominatimURL string
	OSRMURL      string
	UserAgent    string

	// Planner tuning
	SearchDebounceMs int
	SearchTimeoutSec int
	RouteTimeoutSec  int
	PriceRefreshMin  int

	// Simulated fuel price feed
	FuelPriceMin     float64
	FuelPriceMax     float64
	FuelPriceDelayMs int

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func Load() *Config {
	// .env is optional; explicit environment variables always win
	_ = godotenv.Load()

	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "2525"))

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)/fuelroute?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key"),

		// Public instances; the courtesy User-Agent identifies us per the
		// Nominatim usage policy.
		NominatimURL: getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		OSRMURL:      getEnv("OSRM_URL", "https://router.project-osrm.org"),
		UserAgent:    getEnv("GEO_USER_AGENT", "fuelroute-api/1.0 (contact@fuelroute.app)"),

		SearchDebounceMs: getEnvInt("SEARCH_DEBOUNCE_MS", 400),
		SearchTimeoutSec: getEnvInt("SEARCH_TIMEOUT_SEC", 8),
		RouteTimeoutSec:  getEnvInt("ROUTE_TIMEOUT_SEC", 12),
		PriceRefreshMin:  getEnvInt("PRICE_REFRESH_MIN", 30),

		FuelPriceMin:     getEnvFloat("FUEL_PRICE_MIN", 1.30),
		FuelPriceMax:     getEnvFloat("FUEL_PRICE_MAX", 1.95),
		FuelPriceDelayMs: getEnvInt("FUEL_PRICE_DELAY_MS", 800),

		// Email settings
		SMTPHost:     getEnv("SMTP_HOST", "sandbox.smtp.mailtrap.io"),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@fuelroute.app"),
		FromName:     getEnv("FROM_NAME", "FuelRoute"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
