package config

import (
	"os"
	"strconv"
	"time"

	"studykit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Redcap   RedcapConfig
	Database DatabaseConfig
	Server   ServerConfig
	Output   OutputConfig
}

// RedcapConfig holds capture-system API settings. The token itself is never
// stored here: TokenEnv names the environment variable that holds it, so
// tokens stay out of config files and process listings.
type RedcapConfig struct {
	APIURL        string
	TokenEnv      string
	Timeout       time.Duration
	RatePerSecond float64
	MaxConcurrent int
}

// DatabaseConfig holds the optional snapshot-archive connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds preview web server settings
type ServerConfig struct {
	Port string
}

// OutputConfig holds file output settings
type OutputConfig struct {
	Dir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Redcap: RedcapConfig{
			APIURL:        getEnvOrDefault("REDCAP_API_URL", ""),
			TokenEnv:      getEnvOrDefault("REDCAP_TOKEN_ENV", "REDCAP_API_TOKEN"),
			Timeout:       getEnvDurationOrDefault("REDCAP_TIMEOUT", 30*time.Second),
			RatePerSecond: getEnvFloatOrDefault("REDCAP_RATE_LIMIT", 2.0),
			MaxConcurrent: getEnvIntOrDefault("REDCAP_MAX_CONCURRENT", 3),
		},
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Output: OutputConfig{
			Dir: getEnvOrDefault("OUTPUT_DIR", "."),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// HasDatabase reports whether the snapshot archive is configured.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// RequireRedcap checks the settings the pull path needs.
func (c *Config) RequireRedcap() error {
	if c.Redcap.APIURL == "" {
		return errors.ConfigInvalid("REDCAP_API_URL is required for pulls")
	}
	if os.Getenv(c.Redcap.TokenEnv) == "" {
		return errors.ConfigInvalid("API token environment variable " + c.Redcap.TokenEnv + " is not set")
	}
	return nil
}

// RequireDatabase checks the settings the archive path needs.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required for the snapshot archive")
	}
	return nil
}

func validateConfig(config *Config) error {
	if config.Redcap.TokenEnv == "" {
		return errors.ConfigInvalid("REDCAP_TOKEN_ENV cannot be empty")
	}
	if config.Redcap.Timeout <= 0 {
		return errors.ConfigInvalid("REDCAP_TIMEOUT must be positive")
	}
	if config.Redcap.RatePerSecond <= 0 {
		return errors.ConfigInvalid("REDCAP_RATE_LIMIT must be positive")
	}
	if config.Redcap.MaxConcurrent < 1 {
		return errors.ConfigInvalid("REDCAP_MAX_CONCURRENT must be at least 1")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT cannot be empty")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
