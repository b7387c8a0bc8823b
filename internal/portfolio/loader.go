package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/tradelens/backend/internal/cache"
	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/redis"
)

// Loader reads a user's portfolio through the per-user cache
// ⭐ SSOT: 포트폴리오 캐시 무효화는 여기서만
type Loader struct {
	repo   contracts.HoldingRepository
	cache  *cache.Layered[contracts.Portfolio]
	logger *logger.Logger
}

// NewLoader creates a loader; remote may be nil for a memory-only cache
func NewLoader(repo contracts.HoldingRepository, ttl time.Duration, remote *redis.Cache, log *logger.Logger) *Loader {
	return &Loader{
		repo:   repo,
		cache:  cache.NewLayered[contracts.Portfolio]("portfolio", ttl, remote, redis.PortfolioKey, log),
		logger: log,
	}
}

// Load returns the user's holdings newest first
func (l *Loader) Load(ctx context.Context, userID string) (contracts.Portfolio, error) {
	if p, ok := l.cache.Get(ctx, userID); ok {
		return p, nil
	}

	p, err := l.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load portfolio for %s: %w", userID, err)
	}
	if p == nil {
		p = contracts.Portfolio{}
	}
	p.SortByRecency()

	l.cache.Set(ctx, userID, p)
	return p, nil
}

// Invalidate drops the user's cached portfolio
func (l *Loader) Invalidate(ctx context.Context, userID string) {
	l.cache.Delete(ctx, userID)
	l.logger.WithField("user_id", userID).Debug("Invalidated portfolio cache")
}

// Clear drops every cached portfolio and returns how many entries went
func (l *Loader) Clear(ctx context.Context) int {
	return l.cache.Clear(ctx)
}

// Sweeper exposes the in-memory layer for periodic eviction
func (l *Loader) Sweeper() cache.Sweeper {
	return l.cache.Memory()
}
