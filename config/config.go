// Package config reads the fleet import settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds the settings of the import endpoints and the remote sync.
type Config struct {
	// APIURL is the base URL of the fleet API trucks are synced to.
	// Empty disables remote sync.
	APIURL          string
	APIToken        string
	SyncTimeout     time.Duration
	SyncConcurrency int
	MaxUploadMB     int
	ExportDelimiter string
	SeedDemo        bool
}

// Load reads an optional .env file, then the FLEET_* environment variables,
// and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using system environment variables")
	}

	cfg := &Config{
		APIURL:          getEnvOrDefault("FLEET_API_URL", ""),
		APIToken:        getEnvOrDefault("FLEET_API_TOKEN", ""),
		SyncTimeout:     getEnvDurationOrDefault("FLEET_SYNC_TIMEOUT", 15*time.Second),
		SyncConcurrency: getEnvIntOrDefault("FLEET_SYNC_CONCURRENCY", 4),
		MaxUploadMB:     getEnvIntOrDefault("FLEET_MAX_UPLOAD_MB", 10),
		ExportDelimiter: getEnvOrDefault("FLEET_EXPORT_DELIMITER", ","),
		SeedDemo:        getEnvBoolOrDefault("FLEET_SEED_DEMO", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIURL, is.URL),
		validation.Field(&c.SyncTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.SyncConcurrency, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.MaxUploadMB, validation.Required, validation.Min(1), validation.Max(512)),
		validation.Field(&c.ExportDelimiter, validation.Required, validation.In(",", ";", "\t", "|").Error("must be one of , ; tab |")),
	)
}

// SyncEnabled reports whether a fleet API is configured.
func (c *Config) SyncEnabled() bool {
	return c.APIURL != ""
}

// MaxUploadBytes is the request body limit for workbook uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Delimiter returns the export delimiter as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.ExportDelimiter)
	return r
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		SyncTimeout:     15 * time.Second,
		SyncConcurrency: 4,
		MaxUploadMB:     10,
		ExportDelimiter: ",",
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := cast.ToIntE(value); err == nil {
			return intValue
		}
		log.Printf("config: ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := cast.ToBoolE(value); err == nil {
			return boolValue
		}
		log.Printf("config: ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := cast.ToDurationE(value); err == nil {
			return duration
		}
		log.Printf("config: ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}
