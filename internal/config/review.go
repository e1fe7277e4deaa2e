package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ylk14/SmartPlant-sub000/internal/confidence"
)

const (
	EnvReviewConfidenceThreshold = "SMARTPLANT_REVIEW_CONFIDENCE_THRESHOLD"
	EnvReviewPersistTimeout      = "SMARTPLANT_REVIEW_PERSIST_TIMEOUT"
	EnvReviewReadRetries         = "SMARTPLANT_REVIEW_READ_RETRIES"
	EnvReviewReadRetryDelay      = "SMARTPLANT_REVIEW_READ_RETRY_DELAY"
)

// ReviewConfig holds the confidence gate and mutation timing settings.
type ReviewConfig struct {
	// ConfidenceThreshold is a pointer so an explicit 0 (review nothing)
	// survives defaults and overlays.
	ConfidenceThreshold *float64 `toml:"confidence_threshold"`
	PersistTimeout      string   `toml:"persist_timeout"`
	ReadRetries         *int     `toml:"read_retries"`
	ReadRetryDelay      string   `toml:"read_retry_delay"`
}

// Threshold returns the configured confidence threshold.
func (c *ReviewConfig) Threshold() float64 {
	if c.ConfidenceThreshold == nil {
		return confidence.DefaultThreshold
	}
	return *c.ConfidenceThreshold
}

// PersistTimeoutDuration returns PersistTimeout as a time.Duration.
func (c *ReviewConfig) PersistTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PersistTimeout)
	return d
}

// ReadRetryDelayDuration returns ReadRetryDelay as a time.Duration.
func (c *ReviewConfig) ReadRetryDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReadRetryDelay)
	return d
}

// Retries returns the number of read retries after the first attempt.
func (c *ReviewConfig) Retries() int {
	if c.ReadRetries == nil {
		return 0
	}
	return *c.ReadRetries
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ReviewConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ReviewConfig) Merge(overlay *ReviewConfig) {
	if overlay.ConfidenceThreshold != nil {
		c.ConfidenceThreshold = overlay.ConfidenceThreshold
	}
	if overlay.PersistTimeout != "" {
		c.PersistTimeout = overlay.PersistTimeout
	}
	if overlay.ReadRetries != nil {
		c.ReadRetries = overlay.ReadRetries
	}
	if overlay.ReadRetryDelay != "" {
		c.ReadRetryDelay = overlay.ReadRetryDelay
	}
}

func (c *ReviewConfig) loadDefaults() {
	if c.ConfidenceThreshold == nil {
		t := confidence.DefaultThreshold
		c.ConfidenceThreshold = &t
	}
	if c.PersistTimeout == "" {
		c.PersistTimeout = "10s"
	}
	if c.ReadRetries == nil {
		n := 2
		c.ReadRetries = &n
	}
	if c.ReadRetryDelay == "" {
		c.ReadRetryDelay = "100ms"
	}
}

func (c *ReviewConfig) loadEnv() error {
	if v := os.Getenv(EnvReviewConfidenceThreshold); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvReviewConfidenceThreshold, err)
		}
		c.ConfidenceThreshold = &t
	}
	if v := os.Getenv(EnvReviewPersistTimeout); v != "" {
		c.PersistTimeout = v
	}
	if v := os.Getenv(EnvReviewReadRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvReviewReadRetries, err)
		}
		c.ReadRetries = &n
	}
	if v := os.Getenv(EnvReviewReadRetryDelay); v != "" {
		c.ReadRetryDelay = v
	}
	return nil
}

func (c *ReviewConfig) validate() error {
	if err := confidence.Validate(*c.ConfidenceThreshold); err != nil {
		return fmt.Errorf("invalid confidence_threshold: %w", err)
	}
	d, err := time.ParseDuration(c.PersistTimeout)
	if err != nil {
		return fmt.Errorf("invalid persist_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("persist_timeout must be positive, got %s", c.PersistTimeout)
	}
	if *c.ReadRetries < 0 {
		return fmt.Errorf("read_retries must not be negative, got %d", *c.ReadRetries)
	}
	if _, err := time.ParseDuration(c.ReadRetryDelay); err != nil {
		return fmt.Errorf("invalid read_retry_delay: %w", err)
	}
	return nil
}
