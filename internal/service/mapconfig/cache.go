package mapconfig

import (
	"sync"
	"time"

	"manhunt/internal/model"
)

type cacheEntry struct {
	config  *model.MapConfig
	expires time.Time
}

// ttlCache is an explicit get/put/invalidate cache for map
// configurations. Entries expire after a fixed TTL; invalidation on
// settings changes is the caller's responsibility.
type ttlCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration

	now func() time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *ttlCache) Get(mapID string) (*model.MapConfig, bool) {
	c.mu.RLock()
	entry, ok := c.entries[mapID]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.config, true
}

func (c *ttlCache) Put(mapID string, config *model.MapConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[mapID] = cacheEntry{config: config, expires: c.now().Add(c.ttl)}
}

func (c *ttlCache) Invalidate(mapID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, mapID)
}
