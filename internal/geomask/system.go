package geomask

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ylk14/SmartPlant-sub000/internal/observations"
	"github.com/ylk14/SmartPlant-sub000/internal/species"
)

// Options selects which observations feed a heatmap.
type Options struct {
	IncludeMasked bool
	// Status restricts points to one review state; empty means all.
	Status observations.Status
}

// ToggleResult reports the outcome of a mask toggle.
type ToggleResult struct {
	Observation observations.Observation `json:"observation"`
	Visible     bool                     `json:"visible"`
}

// System defines the public contract for geo-masking.
type System interface {
	Handler() *Handler

	HeatmapPoints(ctx context.Context, opts Options) ([]HeatmapPoint, error)
	ToggleMask(ctx context.Context, id uuid.UUID, adminID string) (*ToggleResult, error)
}

// Config tunes the geomask system.
type Config struct {
	// OnToggle, when set, is called after every committed toggle.
	OnToggle func(id uuid.UUID, visible bool)
}

type engine struct {
	observations observations.System
	store        observations.Store
	registry     species.System
	toggled      func(uuid.UUID, bool)
	logger       *slog.Logger
	handlerCfg   HandlerConfig
}

// New creates a geomask System. Writes go to store through the observation
// system's optimistic view.
func New(
	obs observations.System,
	store observations.Store,
	registry species.System,
	cfg Config,
	handlerCfg HandlerConfig,
	logger *slog.Logger,
) System {
	toggled := cfg.OnToggle
	if toggled == nil {
		toggled = func(uuid.UUID, bool) {}
	}
	return &engine{
		observations: obs,
		store:        store,
		registry:     registry,
		toggled:      toggled,
		logger:       logger.With("system", "geomask"),
		handlerCfg:   handlerCfg,
	}
}

func (e *engine) Handler() *Handler {
	return NewHandler(e, e.logger, e.handlerCfg)
}

func (e *engine) HeatmapPoints(ctx context.Context, opts Options) ([]HeatmapPoint, error) {
	var (
		items  []observations.Observation
		lookup species.Lookup
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = e.observations.ListLocated(gctx, observations.LocatedFilter{Status: opts.Status})
		return err
	})
	g.Go(func() error {
		var err error
		lookup, err = e.registry.Index(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lookup, err := e.registry.Fill(ctx, lookup, speciesIDs(items...))
	if err != nil {
		return nil, err
	}

	return BuildHeatmapPoints(e.logger, items, lookup, opts.IncludeMasked), nil
}

// ToggleMask flips the effective visibility of id by persisting the opposite
// as an explicit override. The override is never cleared back to unset.
func (e *engine) ToggleMask(ctx context.Context, id uuid.UUID, adminID string) (*ToggleResult, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, fmt.Errorf("%w: admin id required", observations.ErrValidation)
	}

	lookup, err := e.registry.Index(ctx)
	if err != nil {
		return nil, err
	}

	mutate := func(current observations.Observation) (observations.Observation, error) {
		filled, err := e.registry.Fill(ctx, lookup, speciesIDs(current))
		if err != nil {
			return current, err
		}
		lookup = filled

		visible := Visibility(e.logger, current, resolve(lookup, current))
		// Hiding a visible location means override = true, and vice versa.
		override := visible
		current.MaskOverride = &override
		return current, nil
	}

	persist := func(ctx context.Context, next observations.Observation) (*observations.Observation, error) {
		return e.store.SetMaskOverride(ctx, next.ID, *next.MaskOverride)
	}

	o, err := e.observations.Mutate(ctx, id, mutate, persist)
	if err != nil {
		e.logger.Warn("mask toggle failed", "id", id, "admin_id", adminID, "error", err)
		return nil, err
	}

	visible := EffectiveVisibility(o.MaskOverride, isEndangered(lookup, *o))
	e.toggled(o.ID, visible)
	e.logger.Info("mask toggled",
		"id", o.ID,
		"admin_id", adminID,
		"visible", visible,
	)
	return &ToggleResult{Observation: *o, Visible: visible}, nil
}

func speciesIDs(items ...observations.Observation) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, o := range items {
		if o.SpeciesID != nil {
			ids = append(ids, *o.SpeciesID)
		}
	}
	return ids
}

func isEndangered(lookup species.Lookup, o observations.Observation) bool {
	s := resolve(lookup, o)
	return s != nil && s.IsEndangered
}
