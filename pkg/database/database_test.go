package database_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ylk14/SmartPlant-sub000/pkg/database"
	"github.com/ylk14/SmartPlant-sub000/pkg/lifecycle"
)

func lazyConfig() database.Config {
	return database.Config{
		Host:            "127.0.0.1",
		Port:            1,
		Name:            "smartplant",
		User:            "plants",
		SSLMode:         "disable",
		MaxOpenConns:    42,
		MaxIdleConns:    7,
		ConnMaxLifetime: "10m",
		ConnTimeout:     "200ms",
	}
}

func TestNewSetsPoolParams(t *testing.T) {
	cfg := lazyConfig()
	sys, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sys.Connection().Close()

	if got := sys.Connection().Stats().MaxOpenConnections; got != 42 {
		t.Errorf("MaxOpenConnections = %d, want 42", got)
	}
}

func TestFailedPingLeavesLifecycleNotReady(t *testing.T) {
	cfg := lazyConfig()
	sys, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()

	if lc.Ready() {
		t.Error("lifecycle ready although the database ping failed")
	}
	if status := lc.Status(); status["database"] {
		t.Errorf("status: %v", status)
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
