package hn

import (
	"context"
	"log/slog"
	"sync"
)

// ItemCache memoizes item lookups for the lifetime of one discovery run.
// Missing items are cached too, so a known gap is never refetched.
// It is safe for concurrent use.
type ItemCache struct {
	client Client

	mu      sync.Mutex
	items   map[int]*Item
	fetches int
}

// NewItemCache creates an empty cache backed by client.
func NewItemCache(client Client) *ItemCache {
	return &ItemCache{
		client: client,
		items:  make(map[int]*Item),
	}
}

// Get returns the item for id, fetching it on first use. It returns nil
// when the item is missing or the fetch failed. A fetch interrupted by
// context cancellation is not cached.
func (c *ItemCache) Get(ctx context.Context, id int) *Item {
	if item, ok := c.Lookup(id); ok {
		return item
	}

	item, err := c.client.GetItem(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		slog.Debug("item unavailable", "id", id, "error", err)
		item = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++
	if cached, ok := c.items[id]; ok {
		return cached
	}
	c.items[id] = item
	return item
}

// Lookup returns a cached entry without touching the network. The boolean
// reports whether id has been fetched; the item is nil for known gaps.
func (c *ItemCache) Lookup(id int) (*Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	return item, ok
}

// Fetches returns the number of network lookups performed so far.
func (c *ItemCache) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}
