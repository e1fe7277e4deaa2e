package api

import (
	"fmt"

	"github.com/ylk14/SmartPlant-sub000/internal/config"
	"github.com/ylk14/SmartPlant-sub000/internal/infrastructure"
	"github.com/ylk14/SmartPlant-sub000/pkg/auth"
	"github.com/ylk14/SmartPlant-sub000/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Auth       *auth.System
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	logger := infra.Logger.With("module", "api")

	authSys, err := auth.New(infra.Lifecycle.Context(), &cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Metrics:   infra.Metrics,
		},
		Auth:       authSys,
		Pagination: cfg.API.Pagination,
	}, nil
}
