package config

import (
	"fmt"
	"os"

	"github.com/ylk14/SmartPlant-sub000/pkg/formatting"
	"github.com/ylk14/SmartPlant-sub000/pkg/middleware"
	"github.com/ylk14/SmartPlant-sub000/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SMARTPLANT_CORS_ENABLED",
	Origins:          "SMARTPLANT_CORS_ORIGINS",
	AllowedMethods:   "SMARTPLANT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SMARTPLANT_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "SMARTPLANT_CORS_EXPOSED_HEADERS",
	AllowCredentials: "SMARTPLANT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SMARTPLANT_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "SMARTPLANT_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "SMARTPLANT_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath       string                `toml:"base_path"`
	MaxRequestSize string                `toml:"max_request_size"`
	CORS           middleware.CORSConfig `toml:"cors"`
	Pagination     pagination.Config     `toml:"pagination"`
}

// MaxRequestSizeBytes returns MaxRequestSize in bytes.
func (c *APIConfig) MaxRequestSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxRequestSize)
	if err != nil {
		return 1024 * 1024 // 1MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if _, err := formatting.ParseBytes(c.MaxRequestSize); err != nil {
		return fmt.Errorf("invalid max_request_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
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
	if overlay.MaxRequestSize != "" {
		c.MaxRequestSize = overlay.MaxRequestSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxRequestSize == "" {
		c.MaxRequestSize = "1MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("SMARTPLANT_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("SMARTPLANT_API_MAX_REQUEST_SIZE"); v != "" {
		c.MaxRequestSize = v
	}
}
