package llmclient

import (
	"sync"
	"time"
)

// completionCache memoizes provider completions by exact prompt text. The
// repair loop frequently re-sends an identical prompt (the semantic-intent
// fast path retries with the same error text; a no-op iteration can repeat a
// prompt verbatim), and a cache hit skips both the network round trip and
// the rate limiter.
type completionCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	maxSize int
	ttl     time.Duration
}

type cacheEntry struct {
	value     string
	timestamp time.Time
}

func newCompletionCache(maxSize int, ttl time.Duration) *completionCache {
	return &completionCache{
		entries: make(map[string]cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *completionCache) get(key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Since(entry.timestamp) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

func (c *completionCache) set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{value: value, timestamp: time.Now()}
}

func (c *completionCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.timestamp.Before(oldestTime) {
			oldestKey, oldestTime, first = key, entry.timestamp, false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
