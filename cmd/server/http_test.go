package main

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ylk14/SmartPlant-sub000/internal/config"
	"github.com/ylk14/SmartPlant-sub000/pkg/lifecycle"
)

func serverConfig(port int) *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            port,
		ReadTimeout:     "1s",
		WriteTimeout:    "1s",
		ShutdownTimeout: "1s",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPServerStartReportsBindFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer taken.Close()

	port := taken.Addr().(*net.TCPAddr).Port
	s := newHTTPServer(serverConfig(port), http.NotFoundHandler(), discardLogger())
	lc := lifecycle.New()

	if err := s.Start(lc); err == nil {
		t.Fatal("expected bind error for a port already in use")
	}
	if _, ok := lc.Status()["http"]; ok {
		t.Error("http readiness registered despite failed bind")
	}
}

func TestHTTPServerReadinessFollowsListener(t *testing.T) {
	s := newHTTPServer(serverConfig(0), http.NotFoundHandler(), discardLogger())
	lc := lifecycle.New()

	if err := s.Start(lc); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !lc.Status()["http"] {
		t.Error("http not ready after successful bind")
	}

	if err := lc.Shutdown(2 * time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if lc.Status()["http"] {
		t.Error("http still ready after shutdown")
	}
}
