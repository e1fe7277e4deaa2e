package species

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

// System defines the public contract for species registry operations.
type System interface {
	Handler() *Handler

	// Catalog returns every species sorted by display name.
	Catalog(ctx context.Context) ([]Species, error)
	Find(ctx context.Context, id uuid.UUID) (*Species, error)
	// Index returns a lookup over the (cached) registry.
	Index(ctx context.Context) (Lookup, error)
	// Fill extends lookup with every id in ids that the index missed but the
	// store holds. Ids unknown to the store stay unresolved.
	Fill(ctx context.Context, lookup Lookup, ids []uuid.UUID) (Lookup, error)

	ResolveExisting(ctx context.Context, ref Ref) (*Species, error)
	ResolveNew(ctx context.Context, cmd NewSpecies) (*Species, error)
	// PrepareNew validates cmd and checks for duplicates without side effects.
	PrepareNew(ctx context.Context, cmd NewSpecies) (Species, error)
	// Commit inserts a species produced by PrepareNew.
	Commit(ctx context.Context, draft Species) (*Species, error)
	// Adopt registers a species that was inserted outside Commit, inside
	// another system's transaction.
	Adopt(s Species)
}

// Config tunes the registry system.
type Config struct {
	CacheTTL time.Duration
	Retry    repository.ReadRetry
}

type registry struct {
	store  Store
	cache  *catalogCache
	retry  repository.ReadRetry
	logger *slog.Logger
}

// New creates a species System over store.
func New(store Store, cfg Config, logger *slog.Logger) System {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &registry{
		store:  store,
		cache:  newCatalogCache(ttl),
		retry:  cfg.Retry,
		logger: logger.With("system", "species"),
	}
}

func (r *registry) Handler() *Handler {
	return NewHandler(r, r.logger)
}
