package pattern

import (
	"context"
	"sync"
	"time"
)

// Cache stores per-user suggestion lists. Get returns nil, nil on a
// miss. Entries are replaced whole; there is no partial invalidation.
type Cache interface {
	Get(ctx context.Context, username string) (*CachedSuggestions, error)
	Put(ctx context.Context, username string, entry *CachedSuggestions, ttl time.Duration) error
}

// MemoryCache is the in-process Cache used by default and in tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CachedSuggestions
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*CachedSuggestions)}
}

// Get returns the stored entry. Staleness is the caller's concern: the
// suggester compares analyzed_at against its TTL.
func (c *MemoryCache) Get(_ context.Context, username string) (*CachedSuggestions, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[username], nil
}

// Put replaces the user's entry.
func (c *MemoryCache) Put(_ context.Context, username string, entry *CachedSuggestions, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[username] = entry
	return nil
}
