package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Store is an in-memory read-through cache keyed by entity id. Change
// notifications invalidate entries; a notification older than the last one
// seen for the same id is ignored.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	seen    map[string]time.Time
	gen     uint64
	ttl     time.Duration
	now     func() time.Time
}

// New creates a store. A zero ttl keeps entries until invalidated.
func New[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store[V]) Get(id string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		var zero V
		return zero, false
	}
	if s.ttl > 0 && s.now().Sub(e.storedAt) > s.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *Store[V]) Set(id string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry[V]{value: value, storedAt: s.now()}
}

// Generation changes on every invalidation. Capture it before loading from the
// source and pass it to Fill.
func (s *Store[V]) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Fill stores value only if nothing was invalidated since gen was read, so a load
// that raced a change notification cannot repopulate the old value.
func (s *Store[V]) Fill(id string, value V, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.entries[id] = entry[V]{value: value, storedAt: s.now()}
	return true
}

func (s *Store[V]) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	s.gen++
}

// Purge drops every entry but keeps the change history.
func (s *Store[V]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry[V])
	s.gen++
}

// Observe records a change for id at the given time and drops the cached value.
// It returns false when a newer change for id was already observed.
func (s *Store[V]) Observe(id string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.seen[id]; ok && at.Before(last) {
		return false
	}
	s.seen[id] = at
	delete(s.entries, id)
	s.gen++
	return true
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
