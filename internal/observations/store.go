package observations

import (
	"context"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/internal/species"
	"github.com/ylk14/SmartPlant-sub000/pkg/pagination"
)

// Store is the durable observation contract. Implementations return
// ErrNotFound and ErrConflict for those outcomes and wrap everything else
// with repository.ErrTransient.
type Store interface {
	Create(ctx context.Context, o Observation) (*Observation, error)
	Find(ctx context.Context, id uuid.UUID) (*Observation, error)
	// ListPending pages pending observations newest first, ties by id.
	ListPending(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Observation], error)
	// ListLocated returns observations carrying a stored coordinate.
	ListLocated(ctx context.Context, filter LocatedFilter) ([]Observation, error)
	// Transition writes next's status, species link and notes only if the
	// stored row is still pending, and appends d in the same transaction.
	// A non-nil created species is inserted in that transaction too, so a
	// lost race leaves no species behind. A row that is no longer pending
	// yields ErrConflict; a taken species name yields species.ErrDuplicate.
	Transition(ctx context.Context, next Observation, d Decision, created *species.Species) (*Observation, error)
	SetMaskOverride(ctx context.Context, id uuid.UUID, override bool) (*Observation, error)
	Decisions(ctx context.Context, id uuid.UUID) ([]Decision, error)
}
