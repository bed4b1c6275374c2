// Package config resolves client configuration once at startup.
// Priority: command-line flag > environment variable > default
// (the binary applies flag overrides on top of the loaded struct).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultBaseURL is the local-development fallback. Android emulators
// cannot reach the host's loopback directly, so AndroidBaseURL maps to
// the emulator's host alias.
const (
	DefaultBaseURL = "http://localhost:3000"
	AndroidBaseURL = "http://10.0.2.2:3000"
)

// Config is the resolved client configuration.
type Config struct {
	BaseURL        string        `env:"BOOKLOOP_API_URL" env-default:""`
	Platform       string        `env:"BOOKLOOP_PLATFORM" env-default:""`
	SessionFile    string        `env:"BOOKLOOP_SESSION_FILE" env-default:".bookloop-session.json"`
	DeviceID       string        `env:"BOOKLOOP_DEVICE_ID" env-default:""`
	RequestTimeout time.Duration `env:"BOOKLOOP_REQUEST_TIMEOUT" env-default:"10s"`
	RefreshTimeout time.Duration `env:"BOOKLOOP_REFRESH_TIMEOUT" env-default:"10s"`
}

// Load reads configuration from the environment and fills in the
// platform-specific base URL fallback and a generated device ID where
// none was provided.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
		if strings.EqualFold(cfg.Platform, "android") {
			cfg.BaseURL = AndroidBaseURL
		}
	}

	if cfg.DeviceID == "" {
		cfg.DeviceID = uuid.NewString()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable: a well-formed base
// URL and a device ID in UUID form.
func (c *Config) Validate() error {
	if err := ValidateBaseURL(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if _, err := uuid.Parse(c.DeviceID); err != nil {
		return fmt.Errorf("device ID is not a valid UUID: %w", err)
	}

	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}

	return nil
}

// Insecure reports whether the base URL uses plaintext HTTP. Only safe
// for local development; the binary warns when it is set.
func (c *Config) Insecure() bool {
	return strings.HasPrefix(strings.ToLower(c.BaseURL), "http://")
}

// ValidateBaseURL validates that the API base URL is properly formatted.
func ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("base URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must include a host")
	}

	return nil
}
