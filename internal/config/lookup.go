package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvLookupEndpoint    = "RACKSCAN_LOOKUP_ENDPOINT"
	EnvLookupToken       = "RACKSCAN_LOOKUP_TOKEN"
	EnvLookupTimeout     = "RACKSCAN_LOOKUP_TIMEOUT"
	EnvLookupMinInterval = "RACKSCAN_LOOKUP_MIN_INTERVAL"
	EnvLookupCacheTTL    = "RACKSCAN_LOOKUP_CACHE_TTL"
)

// LookupConfig configures the remote contents lookup service and the cache
// placed in front of whichever lookup source is active. A zero CacheTTL
// disables caching.
type LookupConfig struct {
	Endpoint    string `toml:"endpoint"`
	Token       string `toml:"token"`
	Timeout     string `toml:"timeout"`
	MinInterval string `toml:"min_interval"`
	CacheTTL    string `toml:"cache_ttl"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *LookupConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MinIntervalDuration returns MinInterval as a time.Duration.
func (c *LookupConfig) MinIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.MinInterval)
	return d
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *LookupConfig) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LookupConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *LookupConfig) Merge(overlay *LookupConfig) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MinInterval != "" {
		c.MinInterval = overlay.MinInterval
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

func (c *LookupConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if c.MinInterval == "" {
		c.MinInterval = "100ms"
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "5m"
	}
}

func (c *LookupConfig) loadEnv() {
	if v := os.Getenv(EnvLookupEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvLookupToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvLookupTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvLookupMinInterval); v != "" {
		c.MinInterval = v
	}
	if v := os.Getenv(EnvLookupCacheTTL); v != "" {
		c.CacheTTL = v
	}
}

func (c *LookupConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.MinInterval); err != nil {
		return fmt.Errorf("invalid min_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	return nil
}
