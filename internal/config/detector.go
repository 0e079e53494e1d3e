package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	EnvDetectorEndpoint    = "RACKSCAN_DETECTOR_ENDPOINT"
	EnvDetectorToken       = "RACKSCAN_DETECTOR_TOKEN"
	EnvDetectorTimeout     = "RACKSCAN_DETECTOR_TIMEOUT"
	EnvDetectorMinInterval = "RACKSCAN_DETECTOR_MIN_INTERVAL"
	EnvDetectorSymbologies = "RACKSCAN_DETECTOR_SYMBOLOGIES"
)

// DetectorConfig configures the barcode detection engine client.
type DetectorConfig struct {
	Endpoint    string   `toml:"endpoint"`
	Token       string   `toml:"token"`
	Timeout     string   `toml:"timeout"`
	MinInterval string   `toml:"min_interval"`
	Symbologies []string `toml:"symbologies"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *DetectorConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MinIntervalDuration returns MinInterval as a time.Duration.
func (c *DetectorConfig) MinIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.MinInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *DetectorConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *DetectorConfig) Merge(overlay *DetectorConfig) {
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
	if overlay.Symbologies != nil {
		c.Symbologies = overlay.Symbologies
	}
}

func (c *DetectorConfig) loadDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "http://localhost:8090/detect"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.MinInterval == "" {
		c.MinInterval = "250ms"
	}
	if len(c.Symbologies) == 0 {
		c.Symbologies = []string{"code128", "qr", "datamatrix"}
	}
}

func (c *DetectorConfig) loadEnv() {
	if v := os.Getenv(EnvDetectorEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvDetectorToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvDetectorTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvDetectorMinInterval); v != "" {
		c.MinInterval = v
	}
	if v := os.Getenv(EnvDetectorSymbologies); v != "" {
		symbologies := strings.Split(v, ",")
		for i := range symbologies {
			symbologies[i] = strings.TrimSpace(symbologies[i])
		}
		c.Symbologies = symbologies
	}
}

func (c *DetectorConfig) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.MinInterval); err != nil {
		return fmt.Errorf("invalid min_interval: %w", err)
	}
	return nil
}
