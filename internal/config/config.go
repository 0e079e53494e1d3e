package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/rackscan/pkg/cache"
	"github.com/JaimeStill/rackscan/pkg/database"
	"github.com/JaimeStill/rackscan/pkg/storage"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvRackscanEnv             = "RACKSCAN_ENV"
	EnvRackscanShutdownTimeout = "RACKSCAN_SHUTDOWN_TIMEOUT"
	EnvRackscanVersion         = "RACKSCAN_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "RACKSCAN_DB_DSN",
	Host:            "RACKSCAN_DB_HOST",
	Port:            "RACKSCAN_DB_PORT",
	Name:            "RACKSCAN_DB_NAME",
	User:            "RACKSCAN_DB_USER",
	Password:        "RACKSCAN_DB_PASSWORD",
	SSLMode:         "RACKSCAN_DB_SSL_MODE",
	MaxOpenConns:    "RACKSCAN_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "RACKSCAN_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "RACKSCAN_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "RACKSCAN_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "RACKSCAN_STORAGE_CONTAINER_NAME",
	ConnectionString: "RACKSCAN_STORAGE_CONNECTION_STRING",
	ServiceURL:       "RACKSCAN_STORAGE_SERVICE_URL",
	MaxListSize:      "RACKSCAN_STORAGE_MAX_LIST_SIZE",
	MaxRetries:       "RACKSCAN_STORAGE_MAX_RETRIES",
}

var cacheEnv = &cache.Env{
	Enabled:     "RACKSCAN_CACHE_ENABLED",
	Address:     "RACKSCAN_CACHE_ADDRESS",
	Password:    "RACKSCAN_CACHE_PASSWORD",
	DB:          "RACKSCAN_CACHE_DB",
	Prefix:      "RACKSCAN_CACHE_PREFIX",
	DialTimeout: "RACKSCAN_CACHE_DIAL_TIMEOUT",
}

// Config is the root configuration for the rackscan service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Cache           cache.Config    `toml:"cache"`
	API             APIConfig       `toml:"api"`
	Detector        DetectorConfig  `toml:"detector"`
	Lookup          LookupConfig    `toml:"lookup"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the RACKSCAN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvRackscanEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Cache.Merge(&overlay.Cache)
	c.API.Merge(&overlay.API)
	c.Detector.Merge(&overlay.Detector)
	c.Lookup.Merge(&overlay.Lookup)
	c.Pipeline.Merge(&overlay.Pipeline)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Detector.Finalize(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if err := c.Lookup.Finalize(); err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if c.Pipeline.LookupSource == LookupSourceRemote && c.Lookup.Endpoint == "" {
		return fmt.Errorf("lookup: endpoint required for remote lookup source")
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvRackscanShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvRackscanVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvRackscanEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
