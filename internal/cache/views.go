package cache

import (
	"sync"
	"time"
)

// ViewCache memoizes derived view computations in memory. Entries expire
// after a fixed TTL so views stay close to the live streams without
// rescanning the store on every request.
type ViewCache struct {
	entries map[string]entry
	ttl     time.Duration
	mu      sync.Mutex
}

type entry struct {
	value   interface{}
	expires time.Time
}

// NewViewCache creates a new view cache with the given TTL
func NewViewCache(ttl time.Duration) *ViewCache {
	return &ViewCache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Get returns the cached value for key if it has not expired
func (c *ViewCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key until the TTL elapses
func (c *ViewCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:   value,
		expires: time.Now().Add(c.ttl),
	}
}

// Invalidate drops all cached entries
func (c *ViewCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Size returns the current number of cached entries
func (c *ViewCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
