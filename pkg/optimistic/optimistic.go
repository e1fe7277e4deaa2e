// Package optimistic implements a snapshot/commit/rollback coordinator for
// entities that are changed locally before the change is durably persisted.
//
// A Coordinator owns a published view of tracked entities. Apply publishes a
// tentative next state to every observer immediately, persists it, and on
// failure restores the exact pre-mutation snapshot. At most one mutation per
// key is in flight; a second Apply on a busy key is rejected with ErrBusy.
//
// Rollback restores the snapshot taken when Apply started. If another writer
// changed the entity in the store meanwhile, the restored value is stale;
// callers must re-fetch after any rollback.
package optimistic

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrBusy is returned when the key already has a mutation in flight.
	ErrBusy = errors.New("mutation already in flight")
	// ErrUntracked is returned by Apply for keys never passed to Track.
	ErrUntracked = errors.New("entity not tracked")
	// ErrTimeout is returned when persist does not finish within the configured timeout.
	ErrTimeout = errors.New("persist timed out")
)

// DefaultPersistTimeout applies when Config.PersistTimeout is not positive.
const DefaultPersistTimeout = 10 * time.Second

// Event identifies why an observer is being notified.
type Event string

const (
	EventTracked    Event = "tracked"
	EventApplied    Event = "applied"
	EventCommitted  Event = "committed"
	EventRolledBack Event = "rolled_back"
)

// Observer receives every value published for a key.
type Observer[K comparable, V any] func(key K, value V, event Event)

// MutateFunc derives the next state from a private copy of the current state.
// Returning an error aborts the mutation before anything is published.
type MutateFunc[V any] func(current V) (V, error)

// PersistFunc durably stores next. Its context carries the persist timeout and
// is detached from the caller's cancellation.
type PersistFunc[V any] func(ctx context.Context, next V) error

// Config tunes a Coordinator.
type Config[V any] struct {
	PersistTimeout time.Duration
	// Clone deep-copies values so mutate never aliases the snapshot.
	// Leave nil for values without reference fields.
	Clone func(V) V
}

// Coordinator serializes optimistic mutations per key and publishes their
// outcomes to observers. Mutations on different keys proceed independently.
type Coordinator[K comparable, V any] struct {
	mu        sync.Mutex
	state     map[K]V
	inflight  map[K]bool // true drops the entry when the mutation settles
	observers map[int]Observer[K, V]
	nextObs   int
	timeout   time.Duration
	clone     func(V) V
}

// New creates an empty Coordinator.
func New[K comparable, V any](cfg Config[V]) *Coordinator[K, V] {
	timeout := cfg.PersistTimeout
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}

	clone := cfg.Clone
	if clone == nil {
		clone = func(v V) V { return v }
	}

	return &Coordinator[K, V]{
		state:     make(map[K]V),
		inflight:  make(map[K]bool),
		observers: make(map[int]Observer[K, V]),
		timeout:   timeout,
		clone:     clone,
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (c *Coordinator[K, V]) Subscribe(obs Observer[K, V]) (cancel func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = obs
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Track publishes an authoritative value for key, typically fresh from the store.
// It is rejected with ErrBusy while a mutation on key is in flight.
func (c *Coordinator[K, V]) Track(key K, value V) error {
	c.mu.Lock()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state[key] = c.clone(value)
	c.mu.Unlock()

	c.publish(key, value, EventTracked)
	return nil
}

// Forget drops key from the view. Keys with a mutation in flight are kept.
func (c *Coordinator[K, V]) Forget(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; !busy {
		delete(c.state, key)
	}
}

// Get returns the currently published value for key.
func (c *Coordinator[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.state[key]
	if !ok {
		return v, false
	}
	return c.clone(v), true
}

// InFlight reports whether key has a mutation awaiting persistence.
func (c *Coordinator[K, V]) InFlight(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inflight[key]
	return busy
}

// Apply runs one optimistic mutation on key:
// reject if busy, snapshot, mutate, publish, persist, and either keep the
// published value or restore the snapshot. A persist error is returned to
// the caller exactly once and is never retried.
//
// Once persist is dispatched it is not cancelled by ctx. If it outlives the
// persist timeout the snapshot is restored and ErrTimeout returned, but key
// stays busy until persist actually returns.
func (c *Coordinator[K, V]) Apply(ctx context.Context, key K, mutate MutateFunc[V], persist PersistFunc[V]) (V, error) {
	var zero V

	c.mu.Lock()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return zero, ErrBusy
	}
	current, ok := c.state[key]
	if !ok {
		c.mu.Unlock()
		return zero, ErrUntracked
	}
	c.inflight[key] = false
	snapshot := c.clone(current)
	c.mu.Unlock()

	return c.run(ctx, key, snapshot, mutate, persist)
}

// ApplyFresh tracks fresh and applies one mutation to it in a single step,
// so no other caller can replace the snapshot in between. The key is kept
// in the view only while the mutation is in flight: it is dropped once
// persist settles, including a persist that returns after ErrTimeout.
func (c *Coordinator[K, V]) ApplyFresh(ctx context.Context, key K, fresh V, mutate MutateFunc[V], persist PersistFunc[V]) (V, error) {
	var zero V

	c.mu.Lock()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return zero, ErrBusy
	}
	c.inflight[key] = true
	c.state[key] = c.clone(fresh)
	snapshot := c.clone(fresh)
	c.mu.Unlock()

	c.publish(key, snapshot, EventTracked)
	return c.run(ctx, key, snapshot, mutate, persist)
}

// run owns key from the moment it is marked in flight until release.
func (c *Coordinator[K, V]) run(ctx context.Context, key K, snapshot V, mutate MutateFunc[V], persist PersistFunc[V]) (V, error) {
	var zero V

	next, err := mutate(c.clone(snapshot))
	if err != nil {
		c.release(key)
		return zero, err
	}

	c.set(key, next)
	c.publish(key, next, EventApplied)

	done := make(chan error, 1)
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	go func() {
		defer cancel()
		done <- persist(pctx, c.clone(next))
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			c.rollback(key, snapshot)
			c.release(key)
			return zero, err
		}
		c.publish(key, next, EventCommitted)
		c.release(key)
		return next, nil

	case <-timer.C:
		c.rollback(key, snapshot)
		go func() {
			<-done
			c.release(key)
		}()
		return zero, ErrTimeout
	}
}

func (c *Coordinator[K, V]) rollback(key K, snapshot V) {
	c.set(key, snapshot)
	c.publish(key, snapshot, EventRolledBack)
}

func (c *Coordinator[K, V]) set(key K, value V) {
	c.mu.Lock()
	c.state[key] = c.clone(value)
	c.mu.Unlock()
}

func (c *Coordinator[K, V]) release(key K) {
	c.mu.Lock()
	if drop := c.inflight[key]; drop {
		delete(c.state, key)
	}
	delete(c.inflight, key)
	c.mu.Unlock()
}

func (c *Coordinator[K, V]) publish(key K, value V, event Event) {
	c.mu.Lock()
	observers := make([]Observer[K, V], 0, len(c.observers))
	for _, obs := range c.observers {
		observers = append(observers, obs)
	}
	c.mu.Unlock()

	for _, obs := range observers {
		obs(key, c.clone(value), event)
	}
}
