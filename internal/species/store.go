package species

import (
	"context"

	"github.com/google/uuid"
)

// Store is the durable registry contract. Implementations return ErrNotFound
// and ErrDuplicate for those outcomes and wrap everything else with
// repository.ErrTransient.
type Store interface {
	List(ctx context.Context) ([]Species, error)
	Find(ctx context.Context, id uuid.UUID) (*Species, error)
	// FindByName matches an already normalized scientific name exactly.
	FindByName(ctx context.Context, name string) (*Species, error)
	// Create inserts s; a colliding scientific name yields ErrDuplicate.
	Create(ctx context.Context, s Species) (*Species, error)
}
