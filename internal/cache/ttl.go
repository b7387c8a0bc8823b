package cache

import (
	"sync"
	"time"

	"github.com/wonny/tradelens/backend/pkg/logger"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

// TTL is a concurrency-safe in-memory cache with per-entry expiry
// ⭐ SSOT: 프로세스 메모리 캐시는 이 구조체에서만
// Expired entries are never returned; Sweep reclaims their memory.
type TTL[V any] struct {
	mu      sync.RWMutex
	name    string
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

// New creates a cache whose entries live for ttl
func New[V any](name string, ttl time.Duration, log *logger.Logger) *TTL[V] {
	return &TTL[V]{
		name:    name,
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
		logger:  log.WithField("cache", name),
	}
}

// Name returns the cache name
func (c *TTL[V]) Name() string {
	return c.name
}

// Get returns the value for key if present and fresh
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, storedAt: c.now(), ttl: c.ttl}
}

// SetWithTTL stores value with a lifetime shorter than the cache default
// ttl is capped at the cache TTL; a non-positive ttl stores nothing.
func (c *TTL[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if ttl > c.ttl {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, storedAt: c.now(), ttl: ttl}
}

// Delete removes key
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear drops every entry and returns how many there were
func (c *TTL[V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]entry[V])
	c.logger.WithField("count", n).Info("Cleared cache")
	return n
}

// Len returns the number of stored entries, expired ones included
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Sweep removes expired entries
func (c *TTL[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Debug("Swept expired entries")
	}
	return count
}

// Stats returns cache statistics
func (c *TTL[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{Name: c.name, TotalCount: len(c.entries)}
	for _, e := range c.entries {
		if c.expired(e) {
			stats.StaleCount++
		}
	}
	stats.FreshCount = stats.TotalCount - stats.StaleCount
	return stats
}

func (c *TTL[V]) expired(e entry[V]) bool {
	return c.now().Sub(e.storedAt) >= e.ttl
}

// Stats represents cache statistics
type Stats struct {
	Name       string `json:"name"`
	TotalCount int    `json:"total_count"`
	FreshCount int    `json:"fresh_count"`
	StaleCount int    `json:"stale_count"`
}

// Sweeper is anything with expirable entries
type Sweeper interface {
	Name() string
	Sweep() int
}
