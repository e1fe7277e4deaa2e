package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ylk14/SmartPlant-sub000/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080

[database]
host = "localhost"
port = 5432
name = "smartplant"
user = "smartplant"
password = "smartplant"

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50

[review]
confidence_threshold = 0.75
read_retries = 0

[cache]
species_ttl = "1m"

[auth]
mode = "header"
admin_role = "curator"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[review]
confidence_threshold = 0.0
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	t.Chdir(dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"server port", cfg.Server.Port, 8080},
		{"db name", cfg.Database.Name, "smartplant"},
		{"page size", cfg.API.Pagination.DefaultPageSize, 25},
		{"threshold", cfg.Review.Threshold(), 0.75},
		{"read retries", cfg.Review.Retries(), 0},
		{"species ttl", cfg.Cache.SpeciesTTLDuration(), time.Minute},
		{"idempotency ttl default", cfg.Cache.IdempotencyTTLDuration(), 10 * time.Minute},
		{"persist timeout default", cfg.Review.PersistTimeoutDuration(), 10 * time.Second},
		{"admin role", cfg.Auth.AdminRole, "curator"},
		{"max request size", cfg.API.MaxRequestSizeBytes(), int64(1024 * 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	t.Chdir(dir)
	t.Setenv(config.EnvSmartPlantEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" || cfg.Database.Port != 5432 {
		t.Errorf("db: got %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Review.Threshold() != 0 {
		t.Errorf("explicit zero threshold lost in overlay: %v", cfg.Review.Threshold())
	}
	if cfg.Env() != "staging" {
		t.Errorf("env: got %s", cfg.Env())
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	t.Chdir(dir)

	t.Setenv(config.EnvSmartPlantVersion, "2.0.0")
	t.Setenv(config.EnvServerPort, "3000")
	t.Setenv(config.EnvReviewConfidenceThreshold, "0.5")
	t.Setenv(config.EnvReviewReadRetries, "4")
	t.Setenv("SMARTPLANT_AUTH_ADMIN_ROLE", "admin")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" || cfg.Server.Port != 3000 {
		t.Errorf("version %s port %d", cfg.Version, cfg.Server.Port)
	}
	if cfg.Review.Threshold() != 0.5 || cfg.Review.Retries() != 4 {
		t.Errorf("review: threshold %v retries %d", cfg.Review.Threshold(), cfg.Review.Retries())
	}
	if cfg.Auth.AdminRole != "admin" {
		t.Errorf("admin role: %s", cfg.Auth.AdminRole)
	}
}

func TestLoadNoConfigFileMemoryDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SMARTPLANT_DB_DRIVER", "memory")
	t.Setenv("SMARTPLANT_AUTH_MODE", "header")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if !cfg.Database.InMemory() {
		t.Error("memory driver not applied")
	}
	if cfg.Server.Port != 8080 || cfg.Review.Threshold() != 0.6 || cfg.Review.Retries() != 2 {
		t.Errorf("defaults: port %d threshold %v retries %d", cfg.Server.Port, cfg.Review.Threshold(), cfg.Review.Retries())
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout: %v", cfg.ShutdownTimeoutDuration())
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "threshold out of range",
			env:     map[string]string{config.EnvReviewConfidenceThreshold: "1.5"},
			wantErr: "confidence_threshold",
		},
		{
			name:    "threshold not a number",
			env:     map[string]string{config.EnvReviewConfidenceThreshold: "high"},
			wantErr: config.EnvReviewConfidenceThreshold,
		},
		{
			name:    "negative retries",
			env:     map[string]string{config.EnvReviewReadRetries: "-1"},
			wantErr: "read_retries",
		},
		{
			name:    "zero persist timeout",
			env:     map[string]string{config.EnvReviewPersistTimeout: "0s"},
			wantErr: "persist_timeout",
		},
		{
			name:    "bad cache ttl",
			env:     map[string]string{config.EnvCacheSpeciesTTL: "soon"},
			wantErr: "species_ttl",
		},
		{
			name:    "bad port",
			env:     map[string]string{config.EnvServerPort: "70000"},
			wantErr: "invalid port",
		},
		{
			name:    "auth mode unset",
			env:     map[string]string{},
			wantErr: "mode required",
		},
		{
			name:    "oidc without issuer",
			env:     map[string]string{"SMARTPLANT_AUTH_MODE": "oidc"},
			wantErr: "issuer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("SMARTPLANT_DB_DRIVER", "memory")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadPostgresRequiresCredentials(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := config.Load()
	if err == nil || !strings.Contains(err.Error(), "database") {
		t.Errorf("err = %v, want database validation failure", err)
	}
}
