package database_test

import (
	"strings"
	"testing"

	"github.com/ylk14/SmartPlant-sub000/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := database.Config{Name: "smartplant", User: "plants"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"driver", cfg.Driver, database.DriverPostgres},
		{"host", cfg.Host, "localhost"},
		{"port", cfg.Port, 5432},
		{"ssl_mode", cfg.SSLMode, "disable"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"max_idle_conns", cfg.MaxIdleConns, 5},
		{"conn_max_lifetime", cfg.ConnMaxLifetime, "15m"},
		{"conn_timeout", cfg.ConnTimeout, "5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_DB_PORT", "5433")
	t.Setenv("TEST_DB_NAME", "envdb")
	t.Setenv("TEST_DB_USER", "envuser")
	t.Setenv("TEST_DB_MAX_OPEN", "oops")

	env := &database.Env{
		Host:         "TEST_DB_HOST",
		Port:         "TEST_DB_PORT",
		Name:         "TEST_DB_NAME",
		User:         "TEST_DB_USER",
		MaxOpenConns: "TEST_DB_MAX_OPEN",
	}

	cfg := database.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Host != "db.internal" || cfg.Port != 5433 || cfg.Name != "envdb" || cfg.User != "envuser" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.MaxOpenConns != 25 {
		t.Errorf("unparsable env should keep default, got %d", cfg.MaxOpenConns)
	}
}

func TestFinalizeMemoryDriverSkipsValidation(t *testing.T) {
	t.Setenv("TEST_DB_DRIVER", database.DriverMemory)

	cfg := database.Config{}
	if err := cfg.Finalize(&database.Env{Driver: "TEST_DB_DRIVER"}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if !cfg.InMemory() {
		t.Error("memory driver not selected")
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     database.Config
		wantErr string
	}{
		{"unknown driver", database.Config{Driver: "sqlite"}, "unsupported driver"},
		{"missing name", database.Config{User: "plants"}, "name required"},
		{"missing user", database.Config{Name: "smartplant"}, "user required"},
		{"invalid conn_max_lifetime", database.Config{Name: "n", User: "u", ConnMaxLifetime: "bad"}, "invalid conn_max_lifetime"},
		{"invalid conn_timeout", database.Config{Name: "n", User: "u", ConnTimeout: "bad"}, "invalid conn_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "base"}
	base.Merge(&database.Config{Port: 6543, Password: "secret"})

	if base.Host != "localhost" || base.Port != 6543 || base.Password != "secret" || base.Name != "base" {
		t.Errorf("merge: %+v", base)
	}
}

func TestURL(t *testing.T) {
	cfg := database.Config{
		Host:     "db",
		Port:     5432,
		Name:     "smartplant",
		User:     "plants",
		Password: "p@ss word",
		SSLMode:  "require",
	}

	want := "postgres://plants:p%40ss%20word@db:5432/smartplant?sslmode=require"
	if got := cfg.URL(); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestDsn(t *testing.T) {
	cfg := database.Config{Host: "db", Port: 5432, Name: "n", User: "u", Password: "p", SSLMode: "disable"}
	want := "host=db port=5432 dbname=n user=u password=p sslmode=disable"
	if got := cfg.Dsn(); got != want {
		t.Errorf("Dsn() = %q", got)
	}
}
