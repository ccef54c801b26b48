// Package cache provides a small in-process key-value cache with a
// wall-clock TTL. Entries are never invalidated by writes elsewhere in
// the system; staleness within the TTL is the caller's accepted
// trade-off.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

type TTLCache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New returns a cache whose entries expire ttl after Set. now supplies
// the clock; pass time.Now outside of tests.
func New(ttl time.Duration, now func() time.Time) *TTLCache {
	if now == nil {
		now = time.Now
	}
	return &TTLCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Expire drops a key before its TTL elapses.
func (c *TTLCache) Expire(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
