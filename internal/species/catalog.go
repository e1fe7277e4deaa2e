package species

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

func (r *registry) Catalog(ctx context.Context) ([]Species, error) {
	index, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	items := slices.Collect(maps.Values(index))
	SortByDisplayName(items)
	return items, nil
}

func (r *registry) Find(ctx context.Context, id uuid.UUID) (*Species, error) {
	return repository.Read(ctx, r.retry, func(ctx context.Context) (*Species, error) {
		return r.store.Find(ctx, id)
	})
}

func (r *registry) Index(ctx context.Context) (Lookup, error) {
	index, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return func(id uuid.UUID) (Species, bool) {
		s, ok := index[id]
		return s, ok
	}, nil
}

func (r *registry) load(ctx context.Context) (map[uuid.UUID]Species, error) {
	index, gen, ok := r.cache.get()
	if ok {
		return index, nil
	}

	items, err := repository.Read(ctx, r.retry, r.store.List)
	if err != nil {
		return nil, fmt.Errorf("list species: %w", err)
	}
	return r.cache.put(gen, items), nil
}

func (r *registry) Fill(ctx context.Context, lookup Lookup, ids []uuid.UUID) (Lookup, error) {
	found := make(map[uuid.UUID]Species)
	checked := make(map[uuid.UUID]struct{})

	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := lookup(id); ok {
			continue
		}
		if _, ok := checked[id]; ok {
			continue
		}
		checked[id] = struct{}{}

		s, err := r.Find(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return nil, fmt.Errorf("fill species %s: %w", id, err)
		}
		found[id] = *s
	}

	if len(found) == 0 {
		return lookup, nil
	}

	r.cache.invalidate()
	r.logger.Info("species index refreshed", "missing", len(found))

	return func(id uuid.UUID) (Species, bool) {
		if s, ok := found[id]; ok {
			return s, true
		}
		return lookup(id)
	}, nil
}

// SortByDisplayName orders species by case-insensitive display name,
// breaking ties on scientific name.
func SortByDisplayName(items []Species) {
	slices.SortFunc(items, func(a, b Species) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName())),
			cmp.Compare(a.ScientificName, b.ScientificName),
		)
	})
}
