// Package cache keeps recently fetched repository details in memory.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long an entry stays fresh.
const DefaultTTL = 5 * time.Minute

// Cache wraps go-cache. A zero TTL disables it: Set is a no-op and Get
// always misses.
type Cache struct {
	inner *gocache.Cache
}

// New creates an empty cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		return &Cache{}
	}
	return &Cache{inner: gocache.New(ttl, 2*ttl)}
}

// Get retrieves a value by key.
func (c *Cache) Get(key string) (any, bool) {
	if c.inner == nil {
		return nil, false
	}
	return c.inner.Get(key)
}

// Set stores a value with the default expiration.
func (c *Cache) Set(key string, val any) {
	if c.inner == nil {
		return
	}
	c.inner.Set(key, val, gocache.DefaultExpiration)
}
