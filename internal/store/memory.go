package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// Memory is an in-process store for development and tests
type Memory struct {
	mu       sync.RWMutex
	holdings map[string]contracts.Holding
	now      func() time.Time
	failWith error
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		holdings: make(map[string]contracts.Holding),
		now:      time.Now,
	}
}

// Seed adds raw documents of either schema for userID
func (m *Memory) Seed(userID string, docs ...Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range docs {
		h := NormalizeDocument(d, m.now())
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		h.UserID = userID
		m.holdings[h.ID] = h
	}
}

// FailWith makes every subsequent call return err (nil restores normal behaviour)
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// FindByUser returns every journal entry for the user, newest first
func (m *Memory) FindByUser(ctx context.Context, userID string) (contracts.Portfolio, error) {
	return m.filter(userID, "")
}

// FindActiveByUser returns open positions
func (m *Memory) FindActiveByUser(ctx context.Context, userID string) (contracts.Portfolio, error) {
	return m.filter(userID, contracts.StatusActive)
}

// FindClosedByUser returns closed positions
func (m *Memory) FindClosedByUser(ctx context.Context, userID string) (contracts.Portfolio, error) {
	return m.filter(userID, contracts.StatusClosed)
}

func (m *Memory) filter(userID string, status contracts.HoldingStatus) (contracts.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failWith != nil {
		return nil, m.failWith
	}

	out := contracts.Portfolio{}
	for _, h := range m.holdings {
		if h.UserID != userID || (status != "" && h.Status != status) {
			continue
		}
		out = append(out, h)
	}
	out.SortByRecency()
	return out, nil
}

// FindByID returns one of the user's holdings
func (m *Memory) FindByID(ctx context.Context, userID, id string) (*contracts.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	h, ok := m.holdings[id]
	if !ok || h.UserID != userID {
		return nil, contracts.ErrHoldingNotFound
	}
	return &h, nil
}

// Insert stores h and sets its ID
func (m *Memory) Insert(ctx context.Context, h *contracts.Holding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	h.ID = uuid.NewString()
	m.holdings[h.ID] = *h
	return nil
}

// MarkClosed closes an ACTIVE position
func (m *Memory) MarkClosed(ctx context.Context, userID, id string, exitPrice, pnl float64, exitDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	h, ok := m.holdings[id]
	if !ok || h.UserID != userID {
		return contracts.ErrHoldingNotFound
	}
	if h.Status != contracts.StatusActive {
		return contracts.ErrHoldingNotActive
	}

	h.Status = contracts.StatusClosed
	h.ExitPrice = exitPrice
	h.ExitDate = &exitDate
	h.ProfitAndLoss = pnl
	h.Date = exitDate
	m.holdings[id] = h
	return nil
}

// Ping always succeeds unless a failure is injected
func (m *Memory) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failWith
}

// Shutdown is a no-op
func (m *Memory) Shutdown(ctx context.Context) error {
	return nil
}
