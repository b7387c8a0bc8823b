package pricing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/tradelens/backend/internal/cache"
	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/mathutil"
	"github.com/wonny/tradelens/backend/pkg/redis"
)

// Price sources
const (
	SourceAlphaVantage = "alpha_vantage"
	SourceMock         = "mock"
)

// ErrSymbolRequired is returned for an empty symbol
var ErrSymbolRequired = errors.New("symbol is required")

// Price is the current price of a symbol and where it came from
type Price struct {
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"changePct"`
	Source    string  `json:"source"`
}

// Item is one lookup in a batch
type Item struct {
	Symbol     string
	EntryPrice float64
}

// Service resolves current prices: cache, then the market data gateway, then a mock
// ⭐ SSOT: 포지션 평가용 현재가는 여기서만
type Service struct {
	gateway contracts.MarketDataGateway
	cache   *cache.Layered[Price]
	now     func() time.Time
	logger  *logger.Logger
}

// NewService creates a price service; gateway and remote may be nil
func NewService(gateway contracts.MarketDataGateway, ttl time.Duration, remote *redis.Cache, log *logger.Logger) *Service {
	return &Service{
		gateway: gateway,
		cache:   cache.NewLayered[Price]("price", ttl, remote, redis.PriceKey, log),
		now:     time.Now,
		logger:  log.WithField("component", "pricing"),
	}
}

// CurrentPrice returns the price for symbol
// entryPrice anchors the mock when no live quote is available (0 means 100).
func (s *Service) CurrentPrice(ctx context.Context, symbol string, entryPrice float64) (Price, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return Price{}, ErrSymbolRequired
	}

	if p, ok := s.cache.Get(ctx, sym); ok {
		return p, nil
	}

	if p, ok := s.live(ctx, sym); ok {
		s.cache.Set(ctx, sym, p)
		return p, nil
	}

	p := MockPrice(sym, entryPrice, s.now())
	s.cache.Set(ctx, sym, p)
	return p, nil
}

func (s *Service) live(ctx context.Context, sym string) (Price, bool) {
	if s.gateway == nil {
		return Price{}, false
	}

	q, err := s.gateway.GetQuote(ctx, sym)
	if err != nil {
		if !errors.Is(err, contracts.ErrProviderNotConfigured) {
			s.logger.WithError(err).WithField("symbol", sym).Warn("Live quote unavailable, using mock price")
		}
		return Price{}, false
	}
	if q == nil || q.Price <= 0 {
		return Price{}, false
	}

	p := Price{Price: q.Price, Source: SourceAlphaVantage}
	if q.Change != nil {
		p.Change = *q.Change
	}
	if q.ChangePercent != nil {
		p.ChangePct = *q.ChangePercent
	}
	return p, true
}

// BatchPrices looks up every item in parallel, keyed by uppercase symbol
// A failed lookup falls back to the mock price.
func (s *Service) BatchPrices(ctx context.Context, items []Item) map[string]Price {
	var (
		mu  sync.Mutex
		out = make(map[string]Price, len(items))
		g   errgroup.Group
	)

	for _, it := range items {
		g.Go(func() error {
			sym := strings.ToUpper(strings.TrimSpace(it.Symbol))
			p, err := s.CurrentPrice(ctx, sym, it.EntryPrice)
			if err != nil {
				p = MockPrice(sym, it.EntryPrice, s.now())
			}

			mu.Lock()
			out[sym] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ClearCache drops every cached price
func (s *Service) ClearCache(ctx context.Context) int {
	return s.cache.Clear(ctx)
}

// Sweeper exposes the in-memory layer for periodic eviction
func (s *Service) Sweeper() cache.Sweeper {
	return s.cache.Memory()
}

// MockPrice is a deterministic stand-in that moves once a minute
// The drift stays within ±10% of entryPrice (or 100 when unknown).
func MockPrice(symbol string, entryPrice float64, now time.Time) Price {
	var hash int64
	for _, c := range symbol {
		hash += int64(c)
	}
	minuteBucket := now.UnixMilli() / 60000
	seed := (hash*31 + minuteBucket) % 10000
	drift := float64(seed%200-100) / 1000

	base := entryPrice
	if base <= 0 {
		base = 100
	}
	price := mathutil.Round2(base * (1 + drift))
	change := mathutil.Round2(price - base)

	return Price{
		Price:     price,
		Change:    change,
		ChangePct: mathutil.Round2(change / base * 100),
		Source:    SourceMock,
	}
}

// UnrealizedPnL is the open profit of a position at currentPrice (2 dp)
func UnrealizedPnL(side contracts.HoldingType, entryPrice, currentPrice, quantity float64) float64 {
	if side == contracts.HoldingShort {
		return mathutil.Round2((entryPrice - currentPrice) * quantity)
	}
	return mathutil.Round2((currentPrice - entryPrice) * quantity)
}
