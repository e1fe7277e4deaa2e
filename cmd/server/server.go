package main

import (
	"fmt"
	"time"

	"github.com/ylk14/SmartPlant-sub000/internal/config"
	"github.com/ylk14/SmartPlant-sub000/internal/infrastructure"
)

// Server owns the infrastructure, the mounted API modules and the HTTP
// listener for one process.
type Server struct {
	infra        *infrastructure.Infrastructure
	modules      *Modules
	http         *httpServer
	abortTimeout time.Duration
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"auth_mode", cfg.Auth.Mode,
		"db_driver", cfg.Database.Driver,
		"modules", router.Prefixes(),
	)

	return &Server{
		infra:        infra,
		modules:      modules,
		http:         newHTTPServer(&cfg.Server, router, infra.Logger),
		abortTimeout: cfg.Server.ShutdownTimeoutDuration(),
	}, nil
}

// Start brings up infrastructure, then binds the listener. A bind failure
// unwinds the infrastructure already started so the database pool closes.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		if serr := s.infra.Lifecycle.Shutdown(s.abortTimeout); serr != nil {
			s.infra.Logger.Error("abort shutdown failed", "error", serr)
		}
		return fmt.Errorf("http start failed: %w", err)
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready", "checks", s.infra.Lifecycle.Status())
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
