package webhooks

import (
	"fmt"
	"sync"
	"time"
)

const (
	idemMaxEntries = 10000
	idemTTL        = 24 * time.Hour
)

// idemCache suppresses duplicate webhook deliveries. Keys are the
// (kind, remoteId, status) tuple rather than a delivery nonce, so a genuine
// status transition (sent -> paid) is processed while a redelivery of the
// same transition is not. Bounded at 10k entries with 24h TTL eviction.
type idemCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	max     int
	ttl     time.Duration
	now     func() time.Time
}

func newIdemCache() *idemCache {
	return &idemCache{
		entries: make(map[string]time.Time),
		max:     idemMaxEntries,
		ttl:     idemTTL,
		now:     time.Now,
	}
}

func idemKey(kind, remoteID, status string) string {
	return fmt.Sprintf("%s:%s:%s", kind, remoteID, status)
}

func (c *idemCache) alreadyProcessed(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.now().Sub(at) > c.ttl {
		delete(c.entries, key)
		return false
	}
	return true
}

func (c *idemCache) markProcessed(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, at := range c.entries {
		if now.Sub(at) > c.ttl {
			delete(c.entries, k)
		}
	}
	// Still full after TTL eviction: drop the oldest entry.
	if len(c.entries) >= c.max {
		var oldestKey string
		var oldestAt time.Time
		for k, at := range c.entries {
			if oldestKey == "" || at.Before(oldestAt) {
				oldestKey = k
				oldestAt = at
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = now
}
