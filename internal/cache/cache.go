// Package cache provides a small injectable TTL cache used to memoize engine
// outputs. It is deliberately an explicit dependency rather than package
// state, so tests can substitute [Nop] or drive expiry with a fake clock.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache is a key→value store with per-entry time-based expiry. Concurrent
// use with the same key is idempotent for deterministic values: a race only
// recomputes and overwrites an identical entry.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// TTL is the in-memory Cache implementation.
type TTL struct {
	clock      clockwork.Clock
	defaultTTL time.Duration

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	value     any
	expiresAt time.Time
}

// NewTTL creates a TTL cache. Pass a nil clock to use real time.
func NewTTL(defaultTTL time.Duration, clock clockwork.Clock) *TTL {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TTL{
		clock:      clock,
		defaultTTL: defaultTTL,
		entries:    make(map[string]entry),
	}
}

// Get returns the live value for key. Expired entries are dropped on access.
func (c *TTL) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. A non-positive ttl uses the cache default.
func (c *TTL) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.clock.Now().Add(ttl)}
}

// Purge drops all expired entries and returns how many were removed.
func (c *TTL) Purge() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, including not-yet-purged expired ones.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Nop is a Cache that stores nothing. Useful in tests that must observe
// every computation.
type Nop struct{}

func (Nop) Get(string) (any, bool)         { return nil, false }
func (Nop) Set(string, any, time.Duration) {}
