// Package itemcache implements the Per-Item Cache: a transient,
// single-threaded lookup of the most recent HISTORIC and SUPPLIER
// observation per item. It is populated by scanning events in arrival
// order as the pipeline runs and is rebuilt from scratch on every replay
// — it is never persisted alongside EngineState.
package itemcache

import "github.com/preethamgouda/truth-engine/internal/domain"

// Cache holds one PerItemCache per item_id, keyed by item_id.
type Cache struct {
	items map[string]*domain.PerItemCache
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{items: make(map[string]*domain.PerItemCache)}
}

// Lookup returns the PerItemCache for itemID, creating an empty one on
// first access. The returned value reflects observations recorded via
// Observe up to this call; it is not a live view.
func (c *Cache) Lookup(itemID string) domain.PerItemCache {
	entry := c.entry(itemID)
	return *entry
}

// Observe records a HISTORIC or SUPPLIER event's price and timestamp as
// the latest observation for its source and item. Only the most recent
// observation per (source, item) is retained; callers must present
// events in arrival order for "most recent" to mean what it says.
// HUMAN events carry no observation and are not recorded.
func (c *Cache) Observe(e domain.Event) {
	switch e.Source {
	case domain.SourceHistoric:
		entry := c.entry(e.ItemID)
		entry.LatestHistoric = domain.Observation{PriceCents: e.PriceCents, Timestamp: e.Timestamp, Present: true}
	case domain.SourceSupplier:
		entry := c.entry(e.ItemID)
		entry.LatestSupplier = domain.Observation{PriceCents: e.PriceCents, Timestamp: e.Timestamp, Present: true}
	}
}

func (c *Cache) entry(itemID string) *domain.PerItemCache {
	entry, ok := c.items[itemID]
	if !ok {
		entry = &domain.PerItemCache{}
		c.items[itemID] = entry
	}
	return entry
}
