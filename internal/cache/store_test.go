package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStoreGetSetInvalidate(t *testing.T) {
	s := New[string](0)

	_, ok := s.Get("a")
	assert.False(t, ok)

	s.Set("a", "one")
	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "one", v)

	s.Invalidate("a")
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestStoreFillSkipsAfterInvalidation(t *testing.T) {
	s := New[string](0)

	gen := s.Generation()
	assert.True(t, s.Fill("a", "one", gen))
	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "one", v)

	gen = s.Generation()
	assert.True(t, s.Observe("a", time.Now()))
	assert.False(t, s.Fill("a", "stale", gen))
	_, ok = s.Get("a")
	assert.False(t, ok)

	gen = s.Generation()
	s.Purge()
	assert.False(t, s.Fill("b", "stale", gen))

	gen = s.Generation()
	assert.True(t, s.Fill("b", "fresh", gen))
}

func TestStoreTTL(t *testing.T) {
	s := New[int](time.Minute)
	clock := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	s.Set("a", 1)
	clock = clock.Add(59 * time.Second)
	_, ok := s.Get("a")
	assert.True(t, ok)

	clock = clock.Add(2 * time.Second)
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestStoreObserveLastWriteWins(t *testing.T) {
	s := New[string](0)
	t0 := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	s.Set("a", "v1")
	assert.True(t, s.Observe("a", t0.Add(time.Second)))
	_, ok := s.Get("a")
	assert.False(t, ok)

	s.Set("a", "v2")
	assert.False(t, s.Observe("a", t0), "older change is ignored")
	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	assert.True(t, s.Observe("b", t0), "ids are independent")
}

func TestStorePurge(t *testing.T) {
	s := New[int](0)
	s.Set("a", 1)
	s.Set("b", 2)
	s.Purge()
	assert.Zero(t, s.Len())
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New[int](0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Set("k", i)
			s.Get("k")
			s.Observe("k", time.Now())
		}(i)
	}
	wg.Wait()
}
