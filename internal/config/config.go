package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Smoobu   SmoobuConfig
	Sync     SyncConfig
	Geofence GeofenceConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	PoolMin     int
	PoolMax     int
	AutoMigrate bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// SmoobuConfig holds the reservation feed client configuration.
type SmoobuConfig struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
}

// SyncConfig holds reconciliation tuning.
type SyncConfig struct {
	WindowPastDays   int
	WindowFutureDays int
	BatchSize        int
}

// GeofenceConfig holds attendance thresholds in meters.
type GeofenceConfig struct {
	RadiusMeters    float64
	DeviationMeters float64
}

// MaxBatchSize is the hard ceiling for operations committed in a single chunk.
const MaxBatchSize = 500

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "cleanteam")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("SMOOBU_BASE_URL", "https://login.smoobu.com")
	v.SetDefault("SMOOBU_TIMEOUT", "20s")
	v.SetDefault("SMOOBU_PAGE_SIZE", 100)
	v.SetDefault("SYNC_WINDOW_PAST_DAYS", 2)
	v.SetDefault("SYNC_WINDOW_FUTURE_DAYS", 60)
	v.SetDefault("SYNC_BATCH_SIZE", 450)
	v.SetDefault("GEOFENCE_RADIUS_METERS", 200.0)
	v.SetDefault("WORKLOG_DEVIATION_METERS", 100.0)

	// Bind environment variables
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			PoolMin:     v.GetInt("DB_POOL_MIN"),
			PoolMax:     v.GetInt("DB_POOL_MAX"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Smoobu: SmoobuConfig{
			BaseURL:  strings.TrimRight(v.GetString("SMOOBU_BASE_URL"), "/"),
			Timeout:  v.GetDuration("SMOOBU_TIMEOUT"),
			PageSize: v.GetInt("SMOOBU_PAGE_SIZE"),
		},
		Sync: SyncConfig{
			WindowPastDays:   v.GetInt("SYNC_WINDOW_PAST_DAYS"),
			WindowFutureDays: v.GetInt("SYNC_WINDOW_FUTURE_DAYS"),
			BatchSize:        v.GetInt("SYNC_BATCH_SIZE"),
		},
		Geofence: GeofenceConfig{
			RadiusMeters:    v.GetFloat64("GEOFENCE_RADIUS_METERS"),
			DeviationMeters: v.GetFloat64("WORKLOG_DEVIATION_METERS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Smoobu.BaseURL == "" {
		return fmt.Errorf("SMOOBU_BASE_URL is required")
	}
	if c.Smoobu.Timeout <= 0 {
		return fmt.Errorf("SMOOBU_TIMEOUT must be positive")
	}
	if c.Smoobu.PageSize < 1 {
		return fmt.Errorf("SMOOBU_PAGE_SIZE must be at least 1")
	}

	if c.Sync.WindowPastDays < 0 || c.Sync.WindowFutureDays < 0 {
		return fmt.Errorf("SYNC_WINDOW_PAST_DAYS and SYNC_WINDOW_FUTURE_DAYS must be non-negative")
	}
	if c.Sync.BatchSize < 1 || c.Sync.BatchSize > MaxBatchSize {
		return fmt.Errorf("SYNC_BATCH_SIZE must be between 1 and %d", MaxBatchSize)
	}

	if c.Geofence.RadiusMeters <= 0 {
		return fmt.Errorf("GEOFENCE_RADIUS_METERS must be positive")
	}
	if c.Geofence.DeviationMeters <= 0 {
		return fmt.Errorf("WORKLOG_DEVIATION_METERS must be positive")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
