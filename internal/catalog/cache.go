package catalog

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores resolved EntityDetail entries keyed by entity ID.
// It is safe for concurrent use. With zero size and TTL it never evicts,
// which keeps every resolution for the whole session.
type Cache struct {
	lru *expirable.LRU[string, EntityDetail]
}

// NewCache creates a cache holding at most size entries for at most ttl.
// Zero means unbounded for either limit. onEvict, if non-nil, is called with
// the ID of every entry that leaves the cache; it must not call back into
// the cache.
func NewCache(size int, ttl time.Duration, onEvict func(id string)) *Cache {
	var cb expirable.EvictCallback[string, EntityDetail]
	if onEvict != nil {
		cb = func(id string, _ EntityDetail) { onEvict(id) }
	}
	return &Cache{lru: expirable.NewLRU[string, EntityDetail](size, cb, ttl)}
}

// Get returns the cached detail for the given ID.
func (c *Cache) Get(id string) (EntityDetail, bool) {
	return c.lru.Get(id)
}

// Set stores a detail entry, replacing any existing entry.
func (c *Cache) Set(id string, detail EntityDetail) {
	c.lru.Add(id, detail)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Invalidate clears all cached entries.
func (c *Cache) Invalidate() {
	c.lru.Purge()
}
