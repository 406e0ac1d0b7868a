// ABOUTME: Configuration loader for backend service
// ABOUTME: Loads settings from environment variables (optionally a .env file) with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port               string
	CORSAllowedOrigins []string // allowed CORS origins (empty = any origin, no credentials)
	MaxBodyBytes       int64    // request body limit for POST/PUT

	// Rate Limiting
	RateLimitEnabled bool // Enable rate limiting (default: true)
	RateLimitWrite   int  // Requests per minute for fleet updates (default: 10)
	RateLimitDefault int  // Requests per minute for all other endpoints (default: 100)

	// Economics used by the planner's per-model savings
	ElectricityRate float64 // currency per kWh (default: 0.30)
	HoursPerDay     float64 // daily runtime hours (default: 12)

	// Data
	CatalogPath string // alternate catalog YAML (empty = embedded catalog)
	FleetDBPath string // SQLite fleet store (empty = in-memory only)
	FleetFile   string // TOML fleet to seed the stored fleet at startup

	// Observability
	MetricsEnabled bool
}

// Load reads configuration from the environment. A .env file in the working
// directory, or the file named by ENV_FILE, is loaded first without
// overriding variables that are already set.
func Load() (*Config, error) {
	if err := loadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitWrite:   getEnvInt("RATE_LIMIT_WRITE", 10),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 100),

		ElectricityRate: getEnvFloat("ELECTRICITY_RATE", 0.30),
		HoursPerDay:     getEnvFloat("HOURS_PER_DAY", 12),

		CatalogPath: os.Getenv("CATALOG_PATH"),
		FleetDBPath: os.Getenv("FLEET_DB_PATH"),
		FleetFile:   os.Getenv("FLEET_FILE"),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}

	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_WRITE", cfg.RateLimitWrite},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	if !(cfg.ElectricityRate >= 0) || math.IsInf(cfg.ElectricityRate, 0) {
		return nil, fmt.Errorf("ELECTRICITY_RATE must be a finite non-negative number, got %g", cfg.ElectricityRate)
	}
	if !(cfg.HoursPerDay >= 1 && cfg.HoursPerDay <= 24) {
		return nil, fmt.Errorf("HOURS_PER_DAY must be between 1 and 24, got %g", cfg.HoursPerDay)
	}
	if cfg.MaxBodyBytes < 1024 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be at least 1024, got %d", cfg.MaxBodyBytes)
	}

	return cfg, nil
}

// loadEnvFile loads path, or .env when path is empty. A missing default
// .env is not an error; a missing explicit ENV_FILE is.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
