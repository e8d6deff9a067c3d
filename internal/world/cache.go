package world

import (
	"maps"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nexumi/nexumi-core/internal/domain"
)

// CacheConfig sizes the world read cache
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// cachedWorld remembers the version a world was read at
type cachedWorld struct {
	world   *domain.World
	version int64
}

// worldCache is an LRU of recently read worlds with time-based expiry.
// Writes through the service invalidate the entry.
type worldCache struct {
	lru *expirable.LRU[string, cachedWorld]
}

func newWorldCache(cfg CacheConfig) *worldCache {
	return &worldCache{
		lru: expirable.NewLRU[string, cachedWorld](cfg.Size, nil, cfg.TTL),
	}
}

// Get returns a private copy of the cached world
func (c *worldCache) Get(worldID string) (*domain.World, bool) {
	entry, found := c.lru.Get(worldID)
	if !found {
		return nil, false
	}
	return cloneWorld(entry.world), true
}

// Set stores w unless a newer version is already cached
func (c *worldCache) Set(w *domain.World, version int64) {
	if existing, ok := c.lru.Peek(w.WorldID); ok && existing.version > version {
		return
	}
	c.lru.Add(w.WorldID, cachedWorld{world: cloneWorld(w), version: version})
}

func (c *worldCache) Invalidate(worldID string) {
	c.lru.Remove(worldID)
}

func (c *worldCache) Len() int {
	return c.lru.Len()
}

func cloneWorld(w *domain.World) *domain.World {
	out := *w
	out.Chunks = maps.Clone(w.Chunks)
	out.GlobalStructures = maps.Clone(w.GlobalStructures)
	return &out
}
