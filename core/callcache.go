package core

import "sync"

// CallCache keeps the most recent call entry per feature area. Exactly one
// slot exists for each recognized tag; writes overwrite, never append. It is
// cleared independently of the durable log store.
type CallCache struct {
	mu      sync.RWMutex
	entries map[FeatureArea]*CallEntry
}

func NewCallCache() *CallCache {
	cache := &CallCache{entries: make(map[FeatureArea]*CallEntry, len(FeatureAreas()))}
	for _, area := range FeatureAreas() {
		cache.entries[area] = nil
	}
	return cache
}

// Set records entry as the latest call for its feature area. Unrecognized
// tags land in the "other" slot rather than growing the table.
func (c *CallCache) Set(entry CallEntry) {
	if c == nil {
		return
	}
	area := entry.FeatureArea
	if !area.Valid() {
		area = FeatureAreaOther
	}
	copied := entry
	c.mu.Lock()
	c.entries[area] = &copied
	c.mu.Unlock()
}

// Latest returns the most recent entry for the area, if any.
func (c *CallCache) Latest(area FeatureArea) (CallEntry, bool) {
	if c == nil {
		return CallEntry{}, false
	}
	if !area.Valid() {
		area = FeatureAreaOther
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry := c.entries[area]
	if entry == nil {
		return CallEntry{}, false
	}
	return *entry, true
}

// Snapshot returns a copy of every populated slot keyed by feature area.
func (c *CallCache) Snapshot() map[FeatureArea]CallEntry {
	if c == nil {
		return map[FeatureArea]CallEntry{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[FeatureArea]CallEntry, len(c.entries))
	for area, entry := range c.entries {
		if entry == nil {
			continue
		}
		out[area] = *entry
	}
	return out
}

// Clear empties every slot without touching the durable store.
func (c *CallCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	for _, area := range FeatureAreas() {
		c.entries[area] = nil
	}
	c.mu.Unlock()
}
