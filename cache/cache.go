// Package cache provides the TTL result caches used by the query paths.
// Entries expire after a fixed duration, and every write to the corpus clears
// the caches wholesale, so reads never observe invalidated results.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Options configure a cache.
type Options struct {
	// Now supplies the clock. Tests override it to drive expiry.
	Now func() time.Time
}

// DefaultOptions is the default configuration.
var DefaultOptions = Options{
	Now: time.Now,
}

// Cache is a mutex-guarded TTL cache keyed by canonical query strings.
// A non-positive TTL disables caching entirely.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// New creates a cache whose entries live for ttl.
func New[V any](ttl time.Duration, optFns ...func(o *Options)) *Cache[V] {
	opts := DefaultOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	return &Cache[V]{
		ttl:     ttl,
		now:     opts.Now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the value cached under key if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c.ttl <= 0 {
		c.misses.Add(1)
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	if c.now().After(ent.expiresAt) {
		delete(c.entries, key)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return ent.value, true
}

// Set caches value under key for the cache TTL.
func (c *Cache[V]) Set(key string, value V) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Clear drops every entry and returns the number removed.
func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	clear(c.entries)
	return n
}

// Len returns the number of stored entries, counting expired ones not yet
// swept by a Get.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *Cache[V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
