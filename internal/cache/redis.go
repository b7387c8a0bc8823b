package cache

import (
	"context"
	"time"

	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/redis"
)

// Layered is a TTL cache backed by Redis when Redis is enabled
// Reads try memory first, then Redis. A Redis hit refills memory for the
// key's remaining Redis lifetime only, so no layer outlives the other.
// Redis failures are logged and treated as misses.
// Invalidation reaches this process's memory and Redis; other processes
// keep their memory copy until it expires (at most ttl).
type Layered[V any] struct {
	mem    *TTL[V]
	remote *redis.Cache
	key    func(string) string
	ttl    time.Duration
	logger *logger.Logger
}

// NewLayered creates a layered cache; remote may be nil
// key maps a logical key (user id, symbol) to the Redis key
func NewLayered[V any](name string, ttl time.Duration, remote *redis.Cache, key func(string) string, log *logger.Logger) *Layered[V] {
	return &Layered[V]{
		mem:    New[V](name, ttl, log),
		remote: remote,
		key:    key,
		ttl:    ttl,
		logger: log.WithField("cache", name),
	}
}

// Memory exposes the in-process layer (for sweeps and stats)
func (l *Layered[V]) Memory() *TTL[V] {
	return l.mem
}

// Get returns the cached value for key
func (l *Layered[V]) Get(ctx context.Context, key string) (V, bool) {
	if v, ok := l.mem.Get(key); ok {
		return v, true
	}

	var v V
	if l.remote == nil {
		return v, false
	}

	found, remaining, err := l.remote.GetWithTTL(ctx, l.key(key), &v)
	if err != nil {
		l.logger.WithError(err).Warn("Redis cache read failed")
		return v, false
	}
	if !found {
		return v, false
	}

	l.mem.SetWithTTL(key, v, refillTTL(remaining, l.ttl))
	return v, true
}

// Set stores value in both layers
func (l *Layered[V]) Set(ctx context.Context, key string, value V) {
	l.mem.Set(key, value)
	if l.remote == nil {
		return
	}
	if err := l.remote.Set(ctx, l.key(key), value, l.ttl); err != nil {
		l.logger.WithError(err).Warn("Redis cache write failed")
	}
}

// Delete removes key from both layers
func (l *Layered[V]) Delete(ctx context.Context, key string) {
	l.mem.Delete(key)
	if l.remote == nil {
		return
	}
	if err := l.remote.Delete(ctx, l.key(key)); err != nil {
		l.logger.WithError(err).Warn("Redis cache delete failed")
	}
}

// Clear empties both layers; the Redis side removes every key produced by key("*")
func (l *Layered[V]) Clear(ctx context.Context) int {
	n := l.mem.Clear()
	if l.remote == nil {
		return n
	}
	deleted, err := l.remote.DeletePattern(ctx, l.key("*"))
	if err != nil {
		l.logger.WithError(err).Warn("Redis cache clear failed")
	}
	if deleted > n {
		return deleted
	}
	return n
}

// refillTTL is how long a Redis hit may live in memory
// Keys without an expiry (remaining < 0) get the full ttl.
func refillTTL(remaining, ttl time.Duration) time.Duration {
	if remaining < 0 || remaining > ttl {
		return ttl
	}
	return remaining
}
