package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/config"
	"github.com/wonny/tradelens/backend/pkg/database"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestNormalizeDocument_Legacy(t *testing.T) {
	oid := primitive.NewObjectID()
	h := NormalizeDocument(Document{
		"_id":    oid,
		"userId": "u1",
		"name":   "aapl",
		"pl":     int32(120),
		"date":   primitive.NewDateTimeFromTime(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
		"reason": "breakout",
	}, now)

	assert.Equal(t, oid.Hex(), h.ID)
	assert.Equal(t, "AAPL", h.Symbol)
	assert.Equal(t, contracts.StatusLegacy, h.Status)
	assert.Equal(t, 120.0, h.ProfitAndLoss)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), h.Date)
	assert.Equal(t, "breakout", h.Reason)
}

func TestNormalizeDocument_Closed(t *testing.T) {
	h := NormalizeDocument(Document{
		"symbol":      "TSLA",
		"type":        "short",
		"status":      "CLOSED",
		"entryPrice":  250.0,
		"exitPrice":   240.0,
		"quantity":    int64(10),
		"realizedPnL": 100.0,
		"pl":          nil,
		"entryDate":   "2026-10-01T14:30:00.000Z",
		"exitDate":    "2026-10-05T15:00:00Z",
	}, now)

	assert.Equal(t, contracts.HoldingShort, h.Type)
	assert.Equal(t, contracts.StatusClosed, h.Status)
	assert.Equal(t, 100.0, h.ProfitAndLoss, "pl is null so realizedPnL is used")
	assert.Equal(t, 10.0, h.Quantity)
	assert.Equal(t, time.Date(2026, 10, 5, 15, 0, 0, 0, time.UTC), h.Date)
	require.NotNil(t, h.EntryDate)
	assert.Equal(t, 1, h.EntryDate.Day())
}

func TestNormalizeDocument_Fallbacks(t *testing.T) {
	h := NormalizeDocument(Document{"status": "ACTIVE", "entryDate": time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)}, now)
	assert.Equal(t, "UNKNOWN", h.Symbol)
	assert.Equal(t, 0.0, h.ProfitAndLoss)
	assert.Equal(t, time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC), h.Date)

	h = NormalizeDocument(Document{"name": "X", "pl": "not-a-number"}, now)
	assert.Equal(t, 0.0, h.ProfitAndLoss)
	assert.Equal(t, now, h.Date)
}

func TestNormalizeAll_SortsByDate(t *testing.T) {
	p := NormalizeAll([]Document{
		{"name": "OLD", "date": "2024-01-01"},
		{"name": "NEW", "date": "2026-01-01"},
		{"name": "MID", "date": "2025-01-01"},
	}, now)
	assert.Equal(t, []string{"NEW", "MID", "OLD"}, []string{p[0].Symbol, p[1].Symbol, p[2].Symbol})
}

func TestMemory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Seed("u1", Document{"name": "GME", "pl": -50.0, "date": "2025-03-01"})

	h := &contracts.Holding{
		UserID: "u1", Symbol: "AAPL", Type: contracts.HoldingLong, Status: contracts.StatusActive,
		EntryPrice: 100, Quantity: 10, Date: now, CreatedAt: now,
	}
	require.NoError(t, m.Insert(ctx, h))
	require.NotEmpty(t, h.ID)

	active, err := m.FindActiveByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := m.FindByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	exit := now.Add(time.Hour)
	require.NoError(t, m.MarkClosed(ctx, "u1", h.ID, 110, 100, exit))
	assert.ErrorIs(t, m.MarkClosed(ctx, "u1", h.ID, 110, 100, exit), contracts.ErrHoldingNotActive)

	closed, err := m.FindClosedByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, 100.0, closed[0].ProfitAndLoss)
	assert.Equal(t, exit, closed[0].Date)

	_, err = m.FindByID(ctx, "someone-else", h.ID)
	assert.ErrorIs(t, err, contracts.ErrHoldingNotFound)

	other, err := m.FindByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemory_FailWith(t *testing.T) {
	m := NewMemory()
	boom := errors.New("connection reset")
	m.FailWith(boom)

	_, err := m.FindByUser(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Ping(context.Background()), boom)
}

func TestOpen_Memory(t *testing.T) {
	repo, err := Open(context.Background(), &config.Config{Store: config.StoreConfig{Driver: config.StoreMemory}}, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, repo)

	_, err = Open(context.Background(), &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}, logger.NewNop())
	assert.Error(t, err)
}

func TestPostgres_Integration(t *testing.T) {
	// Skip if DATABASE_URL is not set
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()

	db, err := database.New(ctx, config.DatabaseConfig{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	s, err := NewPostgres(ctx, db, logger.NewNop())
	require.NoError(t, err)

	userID := "it-" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		db.Pool.Exec(context.Background(), `DELETE FROM holdings WHERE user_id = $1`, userID)
	})

	h := &contracts.Holding{
		UserID: userID, Symbol: "MSFT", Type: contracts.HoldingLong, Status: contracts.StatusActive,
		EntryPrice: 400, Quantity: 2, Exchange: "NASDAQ", Date: now, CreatedAt: now,
	}
	require.NoError(t, s.Insert(ctx, h))

	got, err := s.FindByID(ctx, userID, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "MSFT", got.Symbol)
	assert.Equal(t, contracts.StatusActive, got.Status)

	require.NoError(t, s.MarkClosed(ctx, userID, h.ID, 410, 20, now.Add(time.Hour)))
	assert.ErrorIs(t, s.MarkClosed(ctx, userID, h.ID, 410, 20, now), contracts.ErrHoldingNotActive)

	closed, err := s.FindClosedByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, 20.0, closed[0].ProfitAndLoss)

	_, err = s.FindByID(ctx, userID, "not-a-uuid")
	assert.ErrorIs(t, err, contracts.ErrInvalidHoldingID)
}

func TestMongo_Integration(t *testing.T) {
	// Skip if MONGO_URL is not set
	url := os.Getenv("MONGO_URL")
	if url == "" {
		t.Skip("MONGO_URL not set, skipping integration test")
	}
	ctx := context.Background()

	s, err := NewMongo(ctx, config.MongoConfig{URL: url, Database: "tradelens_test", Collection: "trades", MaxPoolSize: 4}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		s.coll.Drop(context.Background())
		s.Shutdown(context.Background())
	})

	h := &contracts.Holding{
		UserID: "u1", Symbol: "NVDA", Type: contracts.HoldingShort, Status: contracts.StatusActive,
		EntryPrice: 120, Quantity: 5, Date: now, CreatedAt: now,
	}
	require.NoError(t, s.Insert(ctx, h))
	require.NoError(t, s.MarkClosed(ctx, "u1", h.ID, 110, 50, now.Add(time.Hour)))

	all, err := s.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 50.0, all[0].ProfitAndLoss)
	assert.Equal(t, contracts.StatusClosed, all[0].Status)

	_, err = s.FindByID(ctx, "u1", "xyz")
	assert.ErrorIs(t, err, contracts.ErrInvalidHoldingID)
}
