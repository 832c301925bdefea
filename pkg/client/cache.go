package client

import (
	"sync"
	"time"
)

// cacheEntry pairs cached data with its fetch time and freshness window.
// A zero ttl means the entry stays fresh until invalidated.
type cacheEntry struct {
	data interface{}
	at   time.Time
	ttl  time.Duration
}

// queryCache is a pull-based cache keyed by (entity, scope). Reads fill on
// miss; mutations invalidate; nothing is pushed.
type queryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newQueryCache() *queryCache {
	return &queryCache{entries: make(map[string]cacheEntry)}
}

func (c *queryCache) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if entry.ttl > 0 && time.Since(entry.at) > entry.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.data, true
}

func (c *queryCache) set(key string, data interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, at: time.Now(), ttl: ttl}
}

func (c *queryCache) invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}
