package main

import (
	"encoding/json"
	"net/http"

	"github.com/ylk14/SmartPlant-sub000/internal/api"
	"github.com/ylk14/SmartPlant-sub000/internal/config"
	"github.com/ylk14/SmartPlant-sub000/internal/infrastructure"
	"github.com/ylk14/SmartPlant-sub000/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := map[string]any{"status": "ready", "checks": infra.Lifecycle.Status()}
		if !infra.Lifecycle.Ready() {
			body["status"] = "not ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(body)
	})

	metrics := infra.Metrics.Handler()
	router.HandleNative("GET /metrics", metrics.ServeHTTP)

	return router
}
