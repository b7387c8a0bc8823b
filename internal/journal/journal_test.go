package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/pricing"
	"github.com/wonny/tradelens/backend/internal/store"
	"github.com/wonny/tradelens/backend/pkg/apperr"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

type recordingInvalidator struct {
	users []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, userID string) {
	r.users = append(r.users, userID)
}

type fixedQuotes map[string]float64

func (f fixedQuotes) GetQuote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	p, ok := f[symbol]
	if !ok {
		return nil, nil
	}
	return &contracts.Quote{Symbol: symbol, Price: p}, nil
}

func (f fixedQuotes) GetOverview(ctx context.Context, symbol string) (*contracts.Overview, error) {
	return nil, nil
}

var t0 = time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

func newTestService(quotes fixedQuotes) (*Service, *store.Memory, *recordingInvalidator) {
	repo := store.NewMemory()
	inv := &recordingInvalidator{}
	prices := pricing.NewService(quotes, 30*time.Second, nil, logger.NewNop())
	s := NewService(repo, prices, inv, logger.NewNop())
	s.now = func() time.Time { return t0 }
	return s, repo, inv
}

func TestOpen(t *testing.T) {
	s, _, inv := newTestService(nil)

	h, err := s.Open(context.Background(), "u1", OpenRequest{Symbol: " aapl ", Type: "long", EntryPrice: 180, Quantity: 10})
	require.NoError(t, err)

	assert.NotEmpty(t, h.ID)
	assert.Equal(t, "AAPL", h.Symbol)
	assert.Equal(t, contracts.HoldingLong, h.Type)
	assert.Equal(t, contracts.StatusActive, h.Status)
	assert.Equal(t, DefaultExchange, h.Exchange)
	assert.Equal(t, t0, h.Date)
	assert.Equal(t, []string{"u1"}, inv.users)
}

func TestOpen_Validation(t *testing.T) {
	s, _, inv := newTestService(nil)

	_, err := s.Open(context.Background(), "u1", OpenRequest{Type: "HOLD", EntryPrice: -1})
	require.Error(t, err)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInput, e.Kind)
	assert.Equal(t, "Validation failed", e.Message)
	assert.Equal(t, "symbol is required; type must be LONG or SHORT; entryPrice must be a positive number; quantity must be a positive integer", e.Details)
	assert.Empty(t, inv.users)
}

func TestClose_ManualExitPrice(t *testing.T) {
	s, _, inv := newTestService(nil)
	ctx := context.Background()

	h, err := s.Open(ctx, "u1", OpenRequest{Symbol: "TSLA", Type: "SHORT", EntryPrice: 250, Quantity: 4})
	require.NoError(t, err)

	exit := 240.0
	closed, err := s.Close(ctx, "u1", h.ID, &exit)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusClosed, closed.Status)
	assert.Equal(t, 240.0, closed.ExitPrice)
	assert.Equal(t, 40.0, closed.ProfitAndLoss)
	assert.Len(t, inv.users, 2)

	_, err = s.Close(ctx, "u1", h.ID, &exit)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestClose_UsesCurrentPrice(t *testing.T) {
	s, _, _ := newTestService(fixedQuotes{"NVDA": 130})
	ctx := context.Background()

	h, err := s.Open(ctx, "u1", OpenRequest{Symbol: "NVDA", Type: "LONG", EntryPrice: 120, Quantity: 3})
	require.NoError(t, err)

	zero := 0.0
	closed, err := s.Close(ctx, "u1", h.ID, &zero)
	require.NoError(t, err)
	assert.Equal(t, 130.0, closed.ExitPrice)
	assert.Equal(t, 30.0, closed.ProfitAndLoss)
}

func TestClose_Errors(t *testing.T) {
	s, repo, _ := newTestService(nil)
	ctx := context.Background()

	_, err := s.Close(ctx, "u1", "", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindInput))

	_, err = s.Close(ctx, "u1", "missing", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	h, err := s.Open(ctx, "u1", OpenRequest{Symbol: "AMD", Type: "LONG", EntryPrice: 100, Quantity: 1})
	require.NoError(t, err)
	_, err = s.Close(ctx, "intruder", h.ID, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	repo.FailWith(errors.New("db down"))
	_, err = s.Close(ctx, "u1", h.ID, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindPersistence))
}

func TestActivePositions(t *testing.T) {
	s, _, _ := newTestService(fixedQuotes{"AAPL": 190, "TSLA": 240})
	ctx := context.Background()

	_, err := s.Open(ctx, "u1", OpenRequest{Symbol: "AAPL", Type: "LONG", EntryPrice: 180, Quantity: 10})
	require.NoError(t, err)
	_, err = s.Open(ctx, "u1", OpenRequest{Symbol: "TSLA", Type: "SHORT", EntryPrice: 250, Quantity: 2})
	require.NoError(t, err)

	got, err := s.ActivePositions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Positions, 2)
	assert.Equal(t, ActiveTotals{UnrealizedPnL: 120, TotalValue: 2380, PositionCount: 2}, got.Totals)

	for _, p := range got.Positions {
		assert.Equal(t, pricing.SourceAlphaVantage, p.PriceSource)
	}

	empty, err := s.ActivePositions(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty.Positions)
	assert.Empty(t, empty.Positions)
}

func TestClosedTrades(t *testing.T) {
	s, _, _ := newTestService(nil)
	ctx := context.Background()

	for _, tc := range []struct {
		sym   string
		entry float64
		exit  float64
	}{{"AAPL", 100, 110}, {"MSFT", 100, 90}, {"AMZN", 100, 130}} {
		h, err := s.Open(ctx, "u1", OpenRequest{Symbol: tc.sym, Type: "LONG", EntryPrice: tc.entry, Quantity: 1})
		require.NoError(t, err)
		exit := tc.exit
		_, err = s.Close(ctx, "u1", h.ID, &exit)
		require.NoError(t, err)
	}

	got, err := s.ClosedTrades(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Trades, 3)
	assert.Equal(t, ClosedTotals{RealizedPnL: 30, TotalTrades: 3, WinRate: 66.7, Wins: 2, Losses: 1}, got.Totals)
	assert.Equal(t, "0h", got.Trades[0].HoldingDuration)
}

func TestHoldingDuration(t *testing.T) {
	entry := t0
	tests := []struct {
		exit     time.Time
		want     string
		wantDays int
	}{
		{t0.Add(5 * time.Hour), "5h", 0},
		{t0.Add(3*24*time.Hour + 4*time.Hour + 30*time.Minute), "3d 4h", 3},
		{t0.Add(-time.Hour), "0h", 0},
	}
	for _, tt := range tests {
		exit := tt.exit
		got, days := HoldingDuration(&entry, &exit)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.wantDays, days)
	}

	got, _ := HoldingDuration(nil, &entry)
	assert.Equal(t, "0h", got)
}
