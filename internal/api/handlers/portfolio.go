package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/portfolio"
	"github.com/wonny/tradelens/backend/pkg/apperr"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// PortfolioLoader is the cached portfolio read path
type PortfolioLoader interface {
	Load(ctx context.Context, userID string) (contracts.Portfolio, error)
	Clear(ctx context.Context) int
}

// PriceCache is the live price cache
type PriceCache interface {
	ClearCache(ctx context.Context) int
}

// PortfolioHandler serves portfolio analytics and cache maintenance
type PortfolioHandler struct {
	loader PortfolioLoader
	prices PriceCache
	logger *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(loader PortfolioLoader, prices PriceCache, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		loader: loader,
		prices: prices,
		logger: log.WithField("handler", "portfolio"),
	}
}

// StatsResponse is the analytics view of a user's journal
type StatsResponse struct {
	Stats     contracts.PortfolioStats    `json:"stats"`
	Breakdown []portfolio.SymbolBreakdown `json:"breakdown"`
	Monthly   []portfolio.MonthlyBucket   `json:"monthly"`
}

// Stats returns win rate, P&L, Sharpe proxy, per-symbol and monthly breakdowns
// GET /api/portfolio/stats
func (h *PortfolioHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	holdings, err := h.loader.Load(r.Context(), uid)
	if err != nil {
		respondAppError(w, h.logger, apperr.Wrap(apperr.KindPersistence, "Failed to load portfolio", err), "Failed to load portfolio")
		return
	}

	respondJSON(w, r, http.StatusOK, StatsResponse{
		Stats:     portfolio.ComputeStats(holdings),
		Breakdown: portfolio.HoldingsBreakdown(holdings),
		Monthly:   portfolio.MonthlyPerformance(holdings),
	})
}

// ClearCache drops every cached portfolio and price
// POST /api/cache/clear
func (h *PortfolioHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	portfolios := h.loader.Clear(r.Context())
	prices := h.prices.ClearCache(r.Context())

	h.logger.WithFields(map[string]interface{}{
		"portfolios": portfolios,
		"prices":     prices,
	}).Info("Caches cleared")

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Cache cleared",
		"cleared": map[string]int{
			"portfolios": portfolios,
			"prices":     prices,
		},
	})
}
