package config

import (
	"fmt"
	"os"
)

const (
	EnvPipelineMode          = "RACKSCAN_PIPELINE_MODE"
	EnvPipelineLookupSource  = "RACKSCAN_PIPELINE_LOOKUP_SOURCE"
	EnvPipelineLookupFailure = "RACKSCAN_PIPELINE_LOOKUP_FAILURE"
)

// Lookup sources for X-ray enrichment.
const (
	LookupSourceDatabase = "database"
	LookupSourceRemote   = "remote"
)

// PipelineConfig holds the controller's startup mode and enrichment behavior.
type PipelineConfig struct {
	Mode          string `toml:"mode"`
	LookupSource  string `toml:"lookup_source"`
	LookupFailure string `toml:"lookup_failure"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.LookupSource != "" {
		c.LookupSource = overlay.LookupSource
	}
	if overlay.LookupFailure != "" {
		c.LookupFailure = overlay.LookupFailure
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.Mode == "" {
		c.Mode = "cycle-count"
	}
	if c.LookupSource == "" {
		c.LookupSource = LookupSourceDatabase
	}
	if c.LookupFailure == "" {
		c.LookupFailure = "fail"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvPipelineLookupSource); v != "" {
		c.LookupSource = v
	}
	if v := os.Getenv(EnvPipelineLookupFailure); v != "" {
		c.LookupFailure = v
	}
}

func (c *PipelineConfig) validate() error {
	switch c.Mode {
	case "cycle-count", "xray":
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	switch c.LookupSource {
	case LookupSourceDatabase, LookupSourceRemote:
	default:
		return fmt.Errorf("invalid lookup_source %q", c.LookupSource)
	}
	switch c.LookupFailure {
	case "fail", "degrade":
	default:
		return fmt.Errorf("invalid lookup_failure %q", c.LookupFailure)
	}
	return nil
}
