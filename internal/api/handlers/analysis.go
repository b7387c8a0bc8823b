package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wonny/tradelens/backend/internal/analysis"
	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// Analyst writes AI commentary and proxies quotes
type Analyst interface {
	AnalyzeStock(ctx context.Context, userID, symbol, exchange string) (*analysis.StockReport, error)
	AnalyzeTrades(ctx context.Context, userID string) (*analysis.TradesReport, error)
	StockData(ctx context.Context, symbol string) (*contracts.Quote, error)
}

// AnalysisHandler serves the commentary endpoints
type AnalysisHandler struct {
	analyst Analyst
	logger  *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyst Analyst, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyst: analyst,
		logger:  log.WithField("handler", "analysis"),
	}
}

type analyzeStockRequest struct {
	StockSymbol string `json:"stockSymbol"`
	Symbol      string `json:"symbol"`
	Exchange    string `json:"exchange"`
}

// AnalyzeStock writes a research note for one symbol, or for PORTFOLIO
// POST /api/analyze-stock
func (h *AnalysisHandler) AnalyzeStock(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req analyzeStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	symbol := req.StockSymbol
	if symbol == "" {
		symbol = req.Symbol
	}

	report, err := h.analyst.AnalyzeStock(r.Context(), uid, symbol, req.Exchange)
	if err != nil {
		respondAppError(w, h.logger, err, "Stock analysis failed")
		return
	}
	respondJSON(w, r, http.StatusOK, report)
}

// AnalyzeTrades reviews the caller's journal
// POST /api/analyze-trades
func (h *AnalysisHandler) AnalyzeTrades(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := h.analyst.AnalyzeTrades(r.Context(), uid)
	if err != nil {
		respondAppError(w, h.logger, err, "Trade analysis failed")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"analysis": report})
}

// StockData returns the latest quote for ?symbol=
// GET /api/stock-data
func (h *AnalysisHandler) StockData(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	quote, err := h.analyst.StockData(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		respondAppError(w, h.logger, err, analysis.MsgQuoteFailed)
		return
	}
	respondJSON(w, r, http.StatusOK, quote)
}
