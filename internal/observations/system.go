package observations

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/internal/confidence"
	"github.com/ylk14/SmartPlant-sub000/internal/species"
	"github.com/ylk14/SmartPlant-sub000/pkg/optimistic"
	"github.com/ylk14/SmartPlant-sub000/pkg/pagination"
	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

// View is the optimistic view shared by every writer of observations.
// Review actions and mask toggles on the same id are serialized through it.
type View = optimistic.Coordinator[uuid.UUID, Observation]

// NewView creates a View whose persist calls are bounded by persistTimeout.
func NewView(persistTimeout time.Duration) *View {
	return optimistic.New[uuid.UUID](optimistic.Config[Observation]{
		PersistTimeout: persistTimeout,
		Clone:          Observation.Clone,
	})
}

// MutateFunc and PersistFunc specialize the optimistic callbacks for observations.
type (
	MutateFunc  = optimistic.MutateFunc[Observation]
	PersistFunc = func(ctx context.Context, next Observation) (*Observation, error)
)

// System defines the public contract for observation intake and review.
type System interface {
	Handler() *Handler

	Submit(ctx context.Context, cmd SubmitCommand) (*Observation, error)
	// Find returns the published view while a mutation is in flight,
	// otherwise the stored observation.
	Find(ctx context.Context, id uuid.UUID) (*Observation, error)
	ReviewQueue(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Observation], error)
	Decisions(ctx context.Context, id uuid.UUID) ([]Decision, error)
	// ListLocated returns observations with a stored coordinate.
	ListLocated(ctx context.Context, filter LocatedFilter) ([]Observation, error)

	Approve(ctx context.Context, id uuid.UUID, adminID, notes string) (*Observation, error)
	Reject(ctx context.Context, id uuid.UUID, adminID, notes string) (*Observation, error)
	IdentifyExisting(ctx context.Context, id uuid.UUID, ref species.Ref, adminID, notes string) (*Observation, error)
	IdentifyNew(ctx context.Context, id uuid.UUID, cmd species.NewSpecies, adminID, notes string) (*Observation, error)

	// Mutate re-reads id from the store and runs one optimistic mutation
	// through the shared View. persist returns the stored result.
	Mutate(ctx context.Context, id uuid.UUID, mutate MutateFunc, persist PersistFunc) (*Observation, error)
}

// Config tunes the observation system.
type Config struct {
	Gate       confidence.Gate
	Retry      repository.ReadRetry
	Pagination pagination.Config
	// OnDecision, when set, is called after every committed review decision.
	OnDecision func(Decision)
}

type repo struct {
	store    Store
	registry species.System
	view     *View
	gate     confidence.Gate
	retry    repository.ReadRetry
	page     pagination.Config
	decided  func(Decision)
	logger   *slog.Logger
}

// New creates an observation System.
func New(store Store, registry species.System, view *View, cfg Config, logger *slog.Logger) System {
	decided := cfg.OnDecision
	if decided == nil {
		decided = func(Decision) {}
	}
	return &repo{
		store:    store,
		registry: registry,
		view:     view,
		gate:     cfg.Gate,
		retry:    cfg.Retry,
		page:     cfg.Pagination,
		decided:  decided,
		logger:   logger.With("system", "observations"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.page)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Observation, error) {
	if r.view.InFlight(id) {
		if o, ok := r.view.Get(id); ok {
			return &o, nil
		}
	}
	return repository.Read(ctx, r.retry, func(ctx context.Context) (*Observation, error) {
		return r.store.Find(ctx, id)
	})
}

func (r *repo) ReviewQueue(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Observation], error) {
	return repository.Read(ctx, r.retry, func(ctx context.Context) (*pagination.PageResult[Observation], error) {
		return r.store.ListPending(ctx, page)
	})
}

func (r *repo) Decisions(ctx context.Context, id uuid.UUID) ([]Decision, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}

	items, err := repository.Read(ctx, r.retry, func(ctx context.Context) ([]Decision, error) {
		return r.store.Decisions(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Decision{}
	}
	return items, nil
}

func (r *repo) ListLocated(ctx context.Context, filter LocatedFilter) ([]Observation, error) {
	return repository.Read(ctx, r.retry, func(ctx context.Context) ([]Observation, error) {
		return r.store.ListLocated(ctx, filter)
	})
}

func (r *repo) Mutate(ctx context.Context, id uuid.UUID, mutate MutateFunc, persist PersistFunc) (*Observation, error) {
	current, err := repository.Read(ctx, r.retry, func(ctx context.Context) (*Observation, error) {
		return r.store.Find(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	var stored *Observation
	_, err = r.view.ApplyFresh(ctx, id, *current, mutate, func(ctx context.Context, next Observation) error {
		o, err := persist(ctx, next)
		if err != nil {
			return err
		}
		stored = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}
