package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/rackscan/pkg/formatting"
	"github.com/JaimeStill/rackscan/pkg/middleware"
	"github.com/JaimeStill/rackscan/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "RACKSCAN_CORS_ENABLED",
	Origins:          "RACKSCAN_CORS_ORIGINS",
	AllowedMethods:   "RACKSCAN_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "RACKSCAN_CORS_ALLOWED_HEADERS",
	AllowCredentials: "RACKSCAN_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "RACKSCAN_CORS_MAX_AGE",
}

var authEnv = &middleware.AuthEnv{
	Enabled:  "RACKSCAN_AUTH_ENABLED",
	Issuer:   "RACKSCAN_AUTH_ISSUER",
	ClientID: "RACKSCAN_AUTH_CLIENT_ID",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "RACKSCAN_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "RACKSCAN_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, bearer auth, and pagination settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Auth          middleware.AuthConfig `toml:"auth"`
	Pagination    pagination.Config     `toml:"pagination"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 20 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Auth.Merge(&overlay.Auth)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "20MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("RACKSCAN_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("RACKSCAN_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}
