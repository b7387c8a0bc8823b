package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/cache"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

type countingSweeper struct {
	name  string
	n     int
	calls int
}

func (s *countingSweeper) Name() string { return s.name }
func (s *countingSweeper) Sweep() int   { s.calls++; return s.n }

func TestCacheSweepJob(t *testing.T) {
	a := &countingSweeper{name: "portfolio", n: 2}
	b := &countingSweeper{name: "price", n: 0}
	job := NewCacheSweepJob(logger.NewNop(), a, b)

	assert.Equal(t, "cache-sweep", job.Name())
	assert.Equal(t, "0 * * * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestCacheSweepJob_EvictsExpired(t *testing.T) {
	c := cache.New[int]("prices", time.Nanosecond, logger.NewNop())
	c.Set("AAPL", 1)
	time.Sleep(time.Millisecond)

	job := NewCacheSweepJob(logger.NewNop(), c)
	require.NoError(t, job.Run(context.Background()))
	assert.Zero(t, c.Len())
}

func TestCacheSweepJob_Cancelled(t *testing.T) {
	a := &countingSweeper{name: "portfolio"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewCacheSweepJob(logger.NewNop(), a).Run(ctx), context.Canceled)
	assert.Zero(t, a.calls)
}
