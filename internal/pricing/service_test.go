package pricing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

type fakeGateway struct {
	mu     sync.Mutex
	quotes map[string]*contracts.Quote
	err    error
	calls  int
}

func (f *fakeGateway) GetQuote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes[symbol], nil
}

func (f *fakeGateway) GetOverview(ctx context.Context, symbol string) (*contracts.Overview, error) {
	return nil, nil
}

func TestMockPrice_Deterministic(t *testing.T) {
	epoch := time.UnixMilli(0)

	p := MockPrice("AAPL", 0, epoch)
	assert.Equal(t, Price{Price: 96.6, Change: -3.4, ChangePct: -3.4, Source: SourceMock}, p)

	p = MockPrice("AAPL", 150, epoch)
	assert.Equal(t, 144.9, p.Price)
	assert.Equal(t, -5.1, p.Change)
	assert.Equal(t, -3.4, p.ChangePct)

	// same minute, same price
	assert.Equal(t, MockPrice("AAPL", 0, epoch), MockPrice("AAPL", 0, epoch.Add(59*time.Second)))
	assert.Equal(t, 96.7, MockPrice("AAPL", 0, epoch.Add(time.Minute)).Price)
}

func TestMockPrice_WithinTenPercent(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 300; i++ {
		sym := fmt.Sprintf("SYM%d", i)
		p := MockPrice(sym, 50, start.Add(time.Duration(i)*time.Minute))
		assert.GreaterOrEqual(t, p.Price, 45.0, sym)
		assert.LessOrEqual(t, p.Price, 55.0, sym)
	}
}

func TestCurrentPrice_LiveQuoteCached(t *testing.T) {
	gw := &fakeGateway{quotes: map[string]*contracts.Quote{
		"MSFT": {Symbol: "MSFT", Price: 410.5, Change: contracts.Float(2.1), ChangePercent: contracts.Float(0.51)},
	}}
	s := NewService(gw, 30*time.Second, nil, logger.NewNop())

	p, err := s.CurrentPrice(context.Background(), "msft", 0)
	require.NoError(t, err)
	assert.Equal(t, Price{Price: 410.5, Change: 2.1, ChangePct: 0.51, Source: SourceAlphaVantage}, p)

	_, err = s.CurrentPrice(context.Background(), "MSFT", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls)

	assert.Equal(t, 1, s.ClearCache(context.Background()))
	_, _ = s.CurrentPrice(context.Background(), "MSFT", 0)
	assert.Equal(t, 2, gw.calls)
}

func TestCurrentPrice_FallsBackToMock(t *testing.T) {
	tests := []struct {
		name string
		gw   contracts.MarketDataGateway
	}{
		{"no gateway", nil},
		{"rate limited", &fakeGateway{err: contracts.ErrRateLimited}},
		{"unknown symbol", &fakeGateway{quotes: map[string]*contracts.Quote{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.gw, 30*time.Second, nil, logger.NewNop())
			fixed := time.UnixMilli(0)
			s.now = func() time.Time { return fixed }

			p, err := s.CurrentPrice(context.Background(), "AAPL", 0)
			require.NoError(t, err)
			assert.Equal(t, SourceMock, p.Source)
			assert.Equal(t, 96.6, p.Price)
		})
	}
}

func TestCurrentPrice_EmptySymbol(t *testing.T) {
	s := NewService(nil, time.Second, nil, logger.NewNop())
	_, err := s.CurrentPrice(context.Background(), "  ", 0)
	assert.ErrorIs(t, err, ErrSymbolRequired)
}

func TestBatchPrices(t *testing.T) {
	gw := &fakeGateway{quotes: map[string]*contracts.Quote{"AAPL": {Price: 190}}}
	s := NewService(gw, 30*time.Second, nil, logger.NewNop())

	got := s.BatchPrices(context.Background(), []Item{
		{Symbol: "aapl", EntryPrice: 180},
		{Symbol: "TSLA", EntryPrice: 250},
		{Symbol: "", EntryPrice: 10},
	})

	require.Len(t, got, 3)
	assert.Equal(t, SourceAlphaVantage, got["AAPL"].Source)
	assert.Equal(t, 190.0, got["AAPL"].Price)
	assert.Equal(t, SourceMock, got["TSLA"].Source)
	assert.InDelta(t, 250, got["TSLA"].Price, 25)
	assert.Equal(t, SourceMock, got[""].Source, "a failed lookup still yields a mock price")
}

func TestUnrealizedPnL(t *testing.T) {
	assert.Equal(t, 100.0, UnrealizedPnL(contracts.HoldingLong, 100, 110, 10))
	assert.Equal(t, -100.0, UnrealizedPnL(contracts.HoldingShort, 100, 110, 10))
	assert.Equal(t, 0.33, UnrealizedPnL(contracts.HoldingLong, 1.0, 1.11, 3))
}
