package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "RACKSCAN_SERVER_HOST"
	EnvServerPort              = "RACKSCAN_SERVER_PORT"
	EnvServerReadTimeout       = "RACKSCAN_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "RACKSCAN_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "RACKSCAN_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "RACKSCAN_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "RACKSCAN_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener settings. The write timeout is long
// because an analyze request holds its connection open for the whole
// detection run.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return mustDuration(c.ReadTimeout)
}

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return mustDuration(c.ReadHeaderTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return mustDuration(c.WriteTimeout)
}

func (c *ServerConfig) IdleTimeoutDuration() time.Duration {
	return mustDuration(c.IdleTimeout)
}

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	over := overlay.timeouts()
	for field, v := range c.timeouts() {
		if o := over[field]; *o != "" {
			*v = *o
		}
	}
}

// timeouts indexes the duration fields by their toml key.
func (c *ServerConfig) timeouts() map[string]*string {
	return map[string]*string{
		"read_timeout":        &c.ReadTimeout,
		"read_header_timeout": &c.ReadHeaderTimeout,
		"write_timeout":       &c.WriteTimeout,
		"idle_timeout":        &c.IdleTimeout,
		"shutdown_timeout":    &c.ShutdownTimeout,
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}

	defaults := map[string]string{
		"read_timeout":        "1m",
		"read_header_timeout": "10s",
		"write_timeout":       "5m",
		"idle_timeout":        "2m",
		"shutdown_timeout":    "30s",
	}
	for field, v := range c.timeouts() {
		if *v == "" {
			*v = defaults[field]
		}
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if port, err := strconv.Atoi(os.Getenv(EnvServerPort)); err == nil {
		c.Port = port
	}

	env := map[string]string{
		"read_timeout":        EnvServerReadTimeout,
		"read_header_timeout": EnvServerReadHeaderTimeout,
		"write_timeout":       EnvServerWriteTimeout,
		"idle_timeout":        EnvServerIdleTimeout,
		"shutdown_timeout":    EnvServerShutdownTimeout,
	}
	for field, v := range c.timeouts() {
		if s := os.Getenv(env[field]); s != "" {
			*v = s
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for field, v := range c.timeouts() {
		if _, err := time.ParseDuration(*v); err != nil {
			return fmt.Errorf("invalid %s: %w", field, err)
		}
	}
	return nil
}

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
