package tokens

import (
	"errors"
	"sync"
)

var (
	// ErrInvalidAPIKey signals that the provided API key is not known.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrTokenStoreNotReady signals that the token store has not been loaded yet.
	// This can happen during startup when the DB isn't ready.
	ErrTokenStoreNotReady = errors.New("token store not ready")
)

// Cache holds the in-memory view of the token table. The zero value is not
// ready; a successful Replace marks it ready.
type Cache struct {
	mu    sync.RWMutex
	cache map[string]int
}

// NewCache creates an empty, not-yet-ready cache.
func NewCache() *Cache {
	return &Cache{}
}

// Replace swaps the full token set.
func (c *Cache) Replace(m map[string]int) {
	cache := make(map[string]int, len(m))
	for k, v := range m {
		cache[k] = v
	}
	c.mu.Lock()
	c.cache = cache
	c.mu.Unlock()
}

// Ready returns true once the cache has been loaded at least once.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache != nil
}

// Validate checks whether the given token exists.
func (c *Cache) Validate(token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cache[token]
	return ok
}

// RateLimit returns the configured per-minute limit for the token. Unknown
// tokens get 0, which disables token-based limiting for them.
func (c *Cache) RateLimit(token string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if limit, ok := c.cache[token]; ok {
		return limit
	}
	return 0
}
