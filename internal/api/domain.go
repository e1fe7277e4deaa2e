package api

import (
	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/internal/confidence"
	"github.com/ylk14/SmartPlant-sub000/internal/config"
	"github.com/ylk14/SmartPlant-sub000/internal/geomask"
	"github.com/ylk14/SmartPlant-sub000/internal/observations"
	"github.com/ylk14/SmartPlant-sub000/internal/species"
	"github.com/ylk14/SmartPlant-sub000/pkg/optimistic"
	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Species      species.System
	Observations observations.System
	Geomask      geomask.System
}

// Stores holds the durable stores the domain systems run on.
type Stores struct {
	Species      species.Store
	Observations observations.Store
}

// NewStores selects PostgreSQL or in-memory stores per the database driver.
func NewStores(runtime *Runtime) Stores {
	if runtime.Database == nil {
		speciesStore := species.NewMemoryStore()
		return Stores{
			Species:      speciesStore,
			Observations: observations.NewMemoryStore(runtime.Pagination, speciesStore),
		}
	}

	db := runtime.Database.Connection()
	return Stores{
		Species:      species.NewPostgresStore(db),
		Observations: observations.NewPostgresStore(db, runtime.Pagination),
	}
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime, stores Stores) *Domain {
	retry := repository.ReadRetry{
		Attempts:     cfg.Review.Retries(),
		InitialDelay: cfg.Review.ReadRetryDelayDuration(),
	}

	speciesSystem := species.New(
		stores.Species,
		species.Config{
			CacheTTL: cfg.Cache.SpeciesTTLDuration(),
			Retry:    retry,
		},
		runtime.Logger,
	)

	view := observations.NewView(cfg.Review.PersistTimeoutDuration())
	observeView(view, runtime)

	observationsSystem := observations.New(
		stores.Observations,
		speciesSystem,
		view,
		observations.Config{
			Gate:       confidence.NewGate(cfg.Review.Threshold()),
			Retry:      retry,
			Pagination: runtime.Pagination,
			OnDecision: func(d observations.Decision) {
				runtime.Metrics.RecordDecision(string(d.Action))
			},
		},
		runtime.Logger,
	)

	geomaskSystem := geomask.New(
		observationsSystem,
		stores.Observations,
		speciesSystem,
		geomask.Config{
			OnToggle: func(_ uuid.UUID, visible bool) {
				runtime.Metrics.RecordToggle(visible)
			},
		},
		geomask.HandlerConfig{IdempotencyTTL: cfg.Cache.IdempotencyTTLDuration()},
		runtime.Logger,
	)

	return &Domain{
		Species:      speciesSystem,
		Observations: observationsSystem,
		Geomask:      geomaskSystem,
	}
}

// observeView feeds optimistic view events into metrics and logs rollbacks.
func observeView(view *observations.View, runtime *Runtime) {
	logger := runtime.Logger.With("system", "optimistic")
	view.Subscribe(func(id uuid.UUID, o observations.Observation, event optimistic.Event) {
		if event == optimistic.EventTracked {
			return
		}
		runtime.Metrics.RecordEvent(string(event))
		if event == optimistic.EventRolledBack {
			logger.Warn("observation mutation rolled back", "id", id, "status", o.Status)
		}
	})
}
