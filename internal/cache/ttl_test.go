package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/tradelens/backend/pkg/logger"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCache(ttl time.Duration) (*TTL[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)}
	c := New[int]("test", ttl, logger.NewNop())
	c.now = clock.Now
	return c, clock
}

func TestTTL_GetSet(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set("a", 2)
	v, _ = c.Get("a")
	assert.Equal(t, 2, v)
}

func TestTTL_Expiry(t *testing.T) {
	c, clock := newTestCache(30 * time.Second)
	c.Set("AAPL", 187)

	clock.Advance(29 * time.Second)
	_, ok := c.Get("AAPL")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("AAPL")
	assert.False(t, ok, "entry at exactly ttl is expired")
	assert.Equal(t, 1, c.Len())

	stats := c.Stats()
	assert.Equal(t, 1, stats.StaleCount)
	assert.Equal(t, 0, stats.FreshCount)
}

func TestTTL_Sweep(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	c.Set("old", 1)
	clock.Advance(2 * time.Minute)
	c.Set("new", 2)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("new")
	assert.True(t, ok)
}

func TestTTL_DeleteAndClear(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	assert.Equal(t, 1, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestTTL_ConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set("k", i)
			c.Get("k")
			c.Sweep()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}

func TestTTL_SetWithTTL(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	c.SetWithTTL("short", 1, 10*time.Second)
	c.SetWithTTL("capped", 2, time.Hour)
	c.SetWithTTL("dead", 3, 0)

	_, ok := c.Get("dead")
	assert.False(t, ok)

	clock.Advance(11 * time.Second)
	_, ok = c.Get("short")
	assert.False(t, ok)
	v, ok := c.Get("capped")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	clock.Advance(time.Minute)
	_, ok = c.Get("capped")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Sweep())
}
