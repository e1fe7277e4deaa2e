package species

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]Species
	byName map[string]uuid.UUID
}

// NewMemoryStore creates an in-process Store, used by the memory database
// driver and by tests. Seed entries are normalized on the way in.
func NewMemoryStore(seed ...Species) Store {
	m := &memoryStore{
		byID:   make(map[uuid.UUID]Species),
		byName: make(map[string]uuid.UUID),
	}
	for _, s := range seed {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.ScientificName = Normalize(s.ScientificName)
		m.byID[s.ID] = s
		m.byName[s.ScientificName] = s.ID
	}
	return m
}

func (m *memoryStore) List(ctx context.Context) ([]Species, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Species, 0, len(m.byID))
	for _, s := range m.byID {
		items = append(items, s)
	}
	slices.SortFunc(items, func(a, b Species) int {
		return cmp.Compare(a.ScientificName, b.ScientificName)
	})
	return items, nil
}

func (m *memoryStore) Find(ctx context.Context, id uuid.UUID) (*Species, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *memoryStore) FindByName(ctx context.Context, name string) (*Species, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	s := m.byID[id]
	return &s, nil
}

func (m *memoryStore) Create(ctx context.Context, s Species) (*Species, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[s.ScientificName]; exists {
		return nil, ErrDuplicate
	}
	if _, exists := m.byID[s.ID]; exists {
		return nil, ErrDuplicate
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.byID[s.ID] = s
	m.byName[s.ScientificName] = s.ID
	return &s, nil
}
