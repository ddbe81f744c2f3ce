package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"labkb/internal/domain"
)

// QueryCache memoizes full answer responses per (query, provider). Entries
// are kept in insertion order; when the cache is full the oldest half is
// dropped in one pass before the new entry goes in. Entries are not
// invalidated by document changes; a bounded staleness window is accepted
// in exchange for not tracking reverse dependencies.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]domain.Response
	order   []string
	maxSize int
}

func NewQueryCache(maxSize int) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &QueryCache{
		entries: make(map[string]domain.Response),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// cacheKey normalizes the query and hashes it together with the provider.
// A hash collision serves the colliding entry; that approximation is
// accepted.
func cacheKey(query, provider string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized + ":" + provider))
	return hex.EncodeToString(sum[:16])
}

// Get returns the cached response for the query/provider pair.
func (c *QueryCache) Get(query, provider string) (domain.Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp, ok := c.entries[cacheKey(query, provider)]
	return resp, ok
}

// Put stores a response, evicting the oldest half first when full.
func (c *QueryCache) Put(query, provider string, resp domain.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, provider)
	if _, exists := c.entries[key]; exists {
		c.entries[key] = resp
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldestHalf()
	}

	c.entries[key] = resp
	c.order = append(c.order, key)
}

// Size returns the current entry count.
func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldestHalf() {
	half := len(c.order) / 2
	if half == 0 {
		half = 1
	}
	for _, key := range c.order[:half] {
		delete(c.entries, key)
	}
	c.order = append(c.order[:0], c.order[half:]...)
}
