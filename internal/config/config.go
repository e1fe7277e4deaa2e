package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ylk14/SmartPlant-sub000/pkg/auth"
	"github.com/ylk14/SmartPlant-sub000/pkg/database"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvSmartPlantEnv             = "SMARTPLANT_ENV"
	EnvSmartPlantShutdownTimeout = "SMARTPLANT_SHUTDOWN_TIMEOUT"
	EnvSmartPlantVersion         = "SMARTPLANT_VERSION"
)

var databaseEnv = &database.Env{
	Driver:          "SMARTPLANT_DB_DRIVER",
	Host:            "SMARTPLANT_DB_HOST",
	Port:            "SMARTPLANT_DB_PORT",
	Name:            "SMARTPLANT_DB_NAME",
	User:            "SMARTPLANT_DB_USER",
	Password:        "SMARTPLANT_DB_PASSWORD",
	SSLMode:         "SMARTPLANT_DB_SSL_MODE",
	MaxOpenConns:    "SMARTPLANT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SMARTPLANT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SMARTPLANT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SMARTPLANT_DB_CONN_TIMEOUT",
}

var authEnv = &auth.Env{
	Mode:       "SMARTPLANT_AUTH_MODE",
	Issuer:     "SMARTPLANT_AUTH_ISSUER",
	ClientID:   "SMARTPLANT_AUTH_CLIENT_ID",
	RolesClaim: "SMARTPLANT_AUTH_ROLES_CLAIM",
	AdminRole:  "SMARTPLANT_AUTH_ADMIN_ROLE",
}

// Config is the root configuration for the SmartPlant moderation service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	API             APIConfig       `toml:"api"`
	Review          ReviewConfig    `toml:"review"`
	Cache           CacheConfig     `toml:"cache"`
	Auth            auth.Config     `toml:"auth"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the SMARTPLANT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSmartPlantEnv); env != "" {
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
	c.API.Merge(&overlay.API)
	c.Review.Merge(&overlay.Review)
	c.Cache.Merge(&overlay.Cache)
	c.Auth.Merge(&overlay.Auth)
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
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Review.Finalize(); err != nil {
		return fmt.Errorf("review: %w", err)
	}
	if err := c.Cache.Finalize(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
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
	if v := os.Getenv(EnvSmartPlantShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvSmartPlantVersion); v != "" {
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
	if env := os.Getenv(EnvSmartPlantEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
