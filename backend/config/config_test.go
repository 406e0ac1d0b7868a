package config

import (
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cleanEnv(t, nil)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.ElectricityRate != 0.30 {
		t.Errorf("Expected default electricity rate 0.30, got %g", cfg.ElectricityRate)
	}
	if cfg.HoursPerDay != 12 {
		t.Errorf("Expected default hours per day 12, got %g", cfg.HoursPerDay)
	}
	if !cfg.RateLimitEnabled || cfg.RateLimitDefault != 100 || cfg.RateLimitWrite != 10 {
		t.Errorf("Unexpected rate limit defaults: enabled=%v default=%d write=%d",
			cfg.RateLimitEnabled, cfg.RateLimitDefault, cfg.RateLimitWrite)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("Expected default body limit 1MiB, got %d", cfg.MaxBodyBytes)
	}
	if cfg.CatalogPath != "" || cfg.FleetDBPath != "" {
		t.Errorf("Expected embedded catalog and memory-only fleet, got %q and %q", cfg.CatalogPath, cfg.FleetDBPath)
	}
	if !cfg.MetricsEnabled {
		t.Error("Expected metrics enabled by default")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	cleanEnv(t, map[string]string{
		"PORT":                 "9090",
		"ELECTRICITY_RATE":     "0.12",
		"HOURS_PER_DAY":        "24",
		"CORS_ALLOWED_ORIGINS": "https://a.example.com, ,https://b.example.com",
		"FLEET_DB_PATH":        "/var/lib/aicap/fleet.db",
		"METRICS_ENABLED":      "false",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.ElectricityRate != 0.12 || cfg.HoursPerDay != 24 {
		t.Errorf("Expected economics 0.12/24, got %g/%g", cfg.ElectricityRate, cfg.HoursPerDay)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("Unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.FleetDBPath != "/var/lib/aicap/fleet.db" {
		t.Errorf("Unexpected fleet DB path %q", cfg.FleetDBPath)
	}
	if cfg.MetricsEnabled {
		t.Error("Expected metrics disabled")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"rate limit zero", map[string]string{"RATE_LIMIT_DEFAULT": "0"}},
		{"rate limit too high", map[string]string{"RATE_LIMIT_WRITE": "10001"}},
		{"negative electricity rate", map[string]string{"ELECTRICITY_RATE": "-0.1"}},
		{"nan electricity rate", map[string]string{"ELECTRICITY_RATE": "NaN"}},
		{"infinite electricity rate", map[string]string{"ELECTRICITY_RATE": "+Inf"}},
		{"nan hours", map[string]string{"HOURS_PER_DAY": "NaN"}},
		{"zero hours", map[string]string{"HOURS_PER_DAY": "0"}},
		{"too many hours", map[string]string{"HOURS_PER_DAY": "25"}},
		{"tiny body limit", map[string]string{"MAX_BODY_BYTES": "10"}},
		{"missing explicit env file", map[string]string{"ENV_FILE": "/nonexistent/aicap.env"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t, tt.env)

			if _, err := Load(); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoadConfig_UnparseableFallsBackToDefault(t *testing.T) {
	cleanEnv(t, map[string]string{
		"ELECTRICITY_RATE":   "cheap",
		"RATE_LIMIT_ENABLED": "maybe",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ElectricityRate != 0.30 {
		t.Errorf("Expected fallback rate 0.30, got %g", cfg.ElectricityRate)
	}
	if !cfg.RateLimitEnabled {
		t.Error("Expected fallback rate limiting enabled")
	}
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	cleanEnv(t, map[string]string{"PORT": "7070"})

	content := "PORT=6060\nELECTRICITY_RATE=0.22\nCATALOG_PATH=/etc/aicap/catalog.yaml\n"
	writeEnvFile(t, ".env", content)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "7070" {
		t.Errorf("Expected environment to win over .env, got port %s", cfg.Port)
	}
	if cfg.ElectricityRate != 0.22 {
		t.Errorf("Expected rate 0.22 from .env, got %g", cfg.ElectricityRate)
	}
	if cfg.CatalogPath != "/etc/aicap/catalog.yaml" {
		t.Errorf("Expected catalog path from .env, got %q", cfg.CatalogPath)
	}
}

func TestLoadConfig_ExplicitEnvFile(t *testing.T) {
	path := writeEnvFile(t, filepath.Join(t.TempDir(), "aicap.env"), "HOURS_PER_DAY=8\n")
	cleanEnv(t, map[string]string{"ENV_FILE": path})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.HoursPerDay != 8 {
		t.Errorf("Expected 8 hours from env file, got %g", cfg.HoursPerDay)
	}
}
