// Package cache provides single-slot TTL caches for catalog reads.
//
// Each cache holds exactly one value (the unfiltered listing); filtered
// queries never touch it. Unlike the ambient-global variant this replaces,
// instances are created at startup, injected into services, and guarded for
// concurrent access.
package cache

import (
	"sync"
	"time"
)

// TTLCache caches a single value for a fixed duration. The zero value is not
// usable; construct with New.
type TTLCache[T any] struct {
	mu      sync.RWMutex
	value   T
	ok      bool
	expires time.Time
	ttl     time.Duration

	now func() time.Time // swapped in tests
}

func New[T any](ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{ttl: ttl, now: time.Now}
}

// Get returns the cached value if one is set and has not expired.
func (c *TTLCache[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	if !c.ok || c.now().After(c.expires) {
		return zero, false
	}
	return c.value, true
}

// Set stores a value and restarts the TTL window.
func (c *TTLCache[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = value
	c.ok = true
	c.expires = c.now().Add(c.ttl)
}

// Invalidate drops the cached value. Writers call this synchronously before
// returning so the next unfiltered read goes to the store.
func (c *TTLCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	c.value = zero
	c.ok = false
}
