// Package config collects the environment-backed settings the server needs.
// Search bounds get sane defaults here instead of hard caps in the query
// layer.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port string
	DSN  string

	SessionSecret string
	GoogleKey     string
	GoogleSecret  string
	CallbackURL   string

	MapsAPIKey string

	// R2 object storage.
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	PublicURL       string

	// Proximity search policy. Radii are in miles as received on the wire.
	DefaultRadiusMiles float64
	MaxRadiusMiles     float64
	DefaultLimit       int
	MaxLimit           int
}

const (
	defaultRadiusMiles = 10
	maxRadiusMiles     = 100
	defaultLimit       = 15
	maxLimit           = 100
)

// FromEnv reads configuration from the environment. Only DSN and
// SESSION_SECRET are validated here; missing collaborator credentials fail
// at client construction instead.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:               envOr("PORT", "3000"),
		DSN:                os.Getenv("DSN"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		GoogleKey:          os.Getenv("GOOGLE_KEY"),
		GoogleSecret:       os.Getenv("GOOGLE_SECRET"),
		CallbackURL:        envOr("OAUTH_CALLBACK_URL", "http://localhost:3000/auth/google/callback"),
		MapsAPIKey:         os.Getenv("MAPS_API_KEY"),
		AccountID:          os.Getenv("ACCOUNT_ID"),
		AccessKeyID:        os.Getenv("ACCESS_KEY_ID"),
		AccessKeySecret:    os.Getenv("ACCESS_KEY_SECRET"),
		Bucket:             os.Getenv("BUCKET_NAME"),
		PublicURL:          os.Getenv("PUBLIC_URL"),
		DefaultRadiusMiles: defaultRadiusMiles,
		MaxRadiusMiles:     maxRadiusMiles,
		DefaultLimit:       defaultLimit,
		MaxLimit:           maxLimit,
	}

	if cfg.DSN == "" {
		return nil, fmt.Errorf("config: DSN is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("config: SESSION_SECRET is required")
	}

	var err error
	if cfg.DefaultRadiusMiles, err = envFloat("DEFAULT_RADIUS_MILES", defaultRadiusMiles); err != nil {
		return nil, err
	}
	if cfg.MaxRadiusMiles, err = envFloat("MAX_RADIUS_MILES", maxRadiusMiles); err != nil {
		return nil, err
	}
	if cfg.DefaultLimit, err = envInt("DEFAULT_LIMIT", defaultLimit); err != nil {
		return nil, err
	}
	if cfg.MaxLimit, err = envInt("MAX_LIMIT", maxLimit); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ClampRadiusMiles applies the default for missing values and the
// configured cap for oversized ones.
func (c *Config) ClampRadiusMiles(miles float64) float64 {
	if miles <= 0 {
		return c.DefaultRadiusMiles
	}
	if miles > c.MaxRadiusMiles {
		return c.MaxRadiusMiles
	}
	return miles
}

// ClampLimit applies the default for missing values and the configured cap
// for oversized ones.
func (c *Config) ClampLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultLimit
	}
	if limit > c.MaxLimit {
		return c.MaxLimit
	}
	return limit
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
