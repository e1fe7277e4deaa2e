package observations

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/internal/species"
	"github.com/ylk14/SmartPlant-sub000/pkg/pagination"
)

type memoryStore struct {
	mu         sync.RWMutex
	items      map[uuid.UUID]Observation
	decisions  map[uuid.UUID][]Decision
	species    species.Store
	pagination pagination.Config
	now        func() time.Time
}

// NewMemoryStore creates an in-process Store, used by the memory database
// driver and by tests. Species created during a transition go to registry.
func NewMemoryStore(pagination pagination.Config, registry species.Store, seed ...Observation) Store {
	m := &memoryStore{
		items:      make(map[uuid.UUID]Observation),
		decisions:  make(map[uuid.UUID][]Decision),
		species:    registry,
		pagination: pagination,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, o := range seed {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		if o.Status == "" {
			o.Status = StatusPending
		}
		m.items[o.ID] = o.Clone()
	}
	return m
}

func (m *memoryStore) Create(ctx context.Context, o Observation) (*Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[o.ID]; exists {
		return nil, ErrConflict
	}

	now := m.now()
	o.CreatedAt, o.UpdatedAt = now, now
	m.items[o.ID] = o.Clone()
	return &o, nil
}

func (m *memoryStore) Find(ctx context.Context, id uuid.UUID) (*Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	o = o.Clone()
	return &o, nil
}

func (m *memoryStore) ListPending(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Observation], error) {
	page.Normalize(m.pagination)

	m.mu.RLock()
	pending := make([]Observation, 0)
	for _, o := range m.items {
		if o.Status != StatusPending || !matchesSearch(o, page.Search) {
			continue
		}
		pending = append(pending, o.Clone())
	}
	m.mu.RUnlock()

	slices.SortFunc(pending, func(a, b Observation) int {
		return cmp.Or(
			b.CreatedAt.Compare(a.CreatedAt),
			strings.Compare(a.ID.String(), b.ID.String()),
		)
	})

	result := pagination.Slice(pending, page)
	return &result, nil
}

func (m *memoryStore) ListLocated(ctx context.Context, filter LocatedFilter) ([]Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Observation, 0)
	for _, o := range m.items {
		if o.Location == nil {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		items = append(items, o.Clone())
	}

	slices.SortFunc(items, func(a, b Observation) int {
		return cmp.Or(
			a.CreatedAt.Compare(b.CreatedAt),
			strings.Compare(a.ID.String(), b.ID.String()),
		)
	})
	return items, nil
}

func (m *memoryStore) Transition(ctx context.Context, next Observation, d Decision, created *species.Species) (*Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[next.ID]
	if !ok || current.Status != StatusPending {
		return nil, ErrConflict
	}

	if created != nil {
		if m.species == nil {
			return nil, fmt.Errorf("%w: no species store for new species", ErrValidation)
		}
		if _, err := m.species.Create(ctx, *created); err != nil {
			return nil, err
		}
	}

	now := m.now()
	current.Status = next.Status
	current.SpeciesID = next.Clone().SpeciesID
	current.Notes = next.Notes
	current.UpdatedAt = now
	m.items[current.ID] = current

	d.DecidedAt = now
	m.decisions[d.ObservationID] = append(m.decisions[d.ObservationID], d)

	out := current.Clone()
	return &out, nil
}

func (m *memoryStore) SetMaskOverride(ctx context.Context, id uuid.UUID, override bool) (*Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}

	current.MaskOverride = &override
	current.UpdatedAt = m.now()
	m.items[id] = current

	out := current.Clone()
	return &out, nil
}

func (m *memoryStore) Decisions(ctx context.Context, id uuid.UUID) ([]Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.decisions[id]), nil
}

func matchesSearch(o Observation, search *string) bool {
	if search == nil || *search == "" {
		return true
	}
	term := strings.ToLower(*search)
	return strings.Contains(strings.ToLower(o.LocationName), term) ||
		strings.Contains(strings.ToLower(o.Notes), term)
}
