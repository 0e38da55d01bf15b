// Package infobox classifies wiki templates as infoboxes by following
// template redirection chains through an external page source.
package infobox

import (
	"sort"
	"sync"
)

// NegativeCache is the set of template names already proven not to resolve
// to an infobox. It is shared across resolutions for the lifetime of a run
// and exists to bound external page fetches. Safe for concurrent use.
type NegativeCache struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewNegativeCache returns an empty cache.
func NewNegativeCache() *NegativeCache {
	return &NegativeCache{names: make(map[string]struct{})}
}

// Has reports whether name is a known non-infobox.
func (c *NegativeCache) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.names[name]
	return ok
}

// Add marks name as a known non-infobox.
func (c *NegativeCache) Add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[name] = struct{}{}
}

// AddAll marks every given name as a known non-infobox.
func (c *NegativeCache) AddAll(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		c.names[name] = struct{}{}
	}
}

// Len returns the number of cached names.
func (c *NegativeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Names returns the cached names in sorted order.
func (c *NegativeCache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.names))
	for name := range c.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
