package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvCacheSpeciesTTL     = "SMARTPLANT_CACHE_SPECIES_TTL"
	EnvCacheIdempotencyTTL = "SMARTPLANT_CACHE_IDEMPOTENCY_TTL"
)

// CacheConfig holds in-process cache lifetimes.
type CacheConfig struct {
	SpeciesTTL     string `toml:"species_ttl"`
	IdempotencyTTL string `toml:"idempotency_ttl"`
}

// SpeciesTTLDuration returns SpeciesTTL as a time.Duration.
func (c *CacheConfig) SpeciesTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SpeciesTTL)
	return d
}

// IdempotencyTTLDuration returns IdempotencyTTL as a time.Duration.
func (c *CacheConfig) IdempotencyTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.IdempotencyTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *CacheConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *CacheConfig) Merge(overlay *CacheConfig) {
	if overlay.SpeciesTTL != "" {
		c.SpeciesTTL = overlay.SpeciesTTL
	}
	if overlay.IdempotencyTTL != "" {
		c.IdempotencyTTL = overlay.IdempotencyTTL
	}
}

func (c *CacheConfig) loadDefaults() {
	if c.SpeciesTTL == "" {
		c.SpeciesTTL = "5m"
	}
	if c.IdempotencyTTL == "" {
		c.IdempotencyTTL = "10m"
	}
}

func (c *CacheConfig) loadEnv() {
	if v := os.Getenv(EnvCacheSpeciesTTL); v != "" {
		c.SpeciesTTL = v
	}
	if v := os.Getenv(EnvCacheIdempotencyTTL); v != "" {
		c.IdempotencyTTL = v
	}
}

func (c *CacheConfig) validate() error {
	for name, v := range map[string]string{
		"species_ttl":     c.SpeciesTTL,
		"idempotency_ttl": c.IdempotencyTTL,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, v)
		}
	}
	return nil
}
