// Package redcap pulls survey exports from a REDCap project over its HTTP
// API. Every export is a form-encoded POST against the project's single
// /api/ endpoint; responses come back as CSV and are parsed into analysis
// frames.
package redcap

import (
	"os"
	"time"

	"studykit/internal/errors"
)

// Config holds the connection settings for one REDCap project. The API
// token is never stored in the config: TokenEnv names the environment
// variable holding it, so tokens stay out of config files and logs.
type Config struct {
	APIURL        string
	TokenEnv      string
	Timeout       time.Duration
	RatePerSecond float64
	MaxConcurrent int
}

// DefaultConfig returns the non-secret defaults. APIURL must still be set
// by the caller.
func DefaultConfig() Config {
	return Config{
		TokenEnv:      "REDCAP_API_TOKEN",
		Timeout:       30 * time.Second,
		RatePerSecond: 2.0,
		MaxConcurrent: 3,
	}
}

// validate checks the config and resolves the token from the environment.
func (c Config) validate() (token string, err error) {
	if c.APIURL == "" {
		return "", errors.ConfigInvalid("REDCap API URL is required")
	}
	if c.TokenEnv == "" {
		return "", errors.ConfigInvalid("token environment variable name is required")
	}
	token = os.Getenv(c.TokenEnv)
	if token == "" {
		return "", errors.ConfigInvalid("API token environment variable " + c.TokenEnv + " is not set")
	}
	if c.Timeout <= 0 {
		return "", errors.ConfigInvalid("timeout must be positive")
	}
	if c.RatePerSecond <= 0 {
		return "", errors.ConfigInvalid("rate limit must be positive")
	}
	if c.MaxConcurrent < 1 {
		return "", errors.ConfigInvalid("max concurrent pulls must be at least 1")
	}
	return token, nil
}
