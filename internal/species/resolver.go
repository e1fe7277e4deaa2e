package species

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

func (r *registry) ResolveExisting(ctx context.Context, ref Ref) (*Species, error) {
	name := strings.TrimSpace(ref.Name)
	if (ref.SpeciesID == nil || *ref.SpeciesID == uuid.Nil) && name == "" {
		return nil, ErrValidation
	}

	if ref.SpeciesID != nil && *ref.SpeciesID != uuid.Nil {
		return r.Find(ctx, *ref.SpeciesID)
	}

	normalized := Normalize(name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: %q has no usable characters", ErrNotFound, name)
	}

	return repository.Read(ctx, r.retry, func(ctx context.Context) (*Species, error) {
		return r.store.FindByName(ctx, normalized)
	})
}

func (r *registry) ResolveNew(ctx context.Context, cmd NewSpecies) (*Species, error) {
	draft, err := r.PrepareNew(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return r.Commit(ctx, draft)
}

func (r *registry) PrepareNew(ctx context.Context, cmd NewSpecies) (Species, error) {
	if strings.TrimSpace(cmd.ScientificName) == "" {
		return Species{}, fmt.Errorf("%w: scientific name required", ErrValidation)
	}

	name := Normalize(cmd.ScientificName)
	if name == "" {
		return Species{}, fmt.Errorf("%w: %q normalizes to an empty name", ErrValidation, cmd.ScientificName)
	}

	_, err := repository.Read(ctx, r.retry, func(ctx context.Context) (*Species, error) {
		return r.store.FindByName(ctx, name)
	})
	switch {
	case err == nil:
		return Species{}, fmt.Errorf("%w: %s", ErrDuplicate, name)
	case !errors.Is(err, ErrNotFound):
		return Species{}, err
	}

	return Species{
		ID:             uuid.New(),
		ScientificName: name,
		CommonName:     strings.TrimSpace(cmd.CommonName),
		IsEndangered:   cmd.IsEndangered,
		Description:    strings.TrimSpace(cmd.Description),
	}, nil
}

func (r *registry) Commit(ctx context.Context, draft Species) (*Species, error) {
	s, err := r.store.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	r.Adopt(*s)
	return s, nil
}

func (r *registry) Adopt(s Species) {
	r.cache.invalidate()
	r.logger.Info("species created",
		"id", s.ID,
		"scientific_name", s.ScientificName,
		"is_endangered", s.IsEndangered,
	)
}
