// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/ylk14/SmartPlant-sub000/internal/config"
	"github.com/ylk14/SmartPlant-sub000/internal/infrastructure"
	"github.com/ylk14/SmartPlant-sub000/pkg/middleware"
	"github.com/ylk14/SmartPlant-sub000/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}

	domain := NewDomain(cfg, runtime, NewStores(runtime))
	return newModule(cfg, runtime, domain), nil
}

func newModule(cfg *config.Config, runtime *Runtime, domain *Domain) *module.Module {
	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.RequestID,
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
		middleware.Recover(runtime.Logger),
		middleware.MaxBytes(cfg.API.MaxRequestSizeBytes()),
		runtime.Auth.Authenticate,
	)

	return m
}
