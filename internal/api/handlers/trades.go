package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/tradelens/backend/internal/journal"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// TradesHandler handles the trade journal endpoints
// ⭐ SSOT: 거래 기록 API 핸들러는 이 구조체에서만
type TradesHandler struct {
	journal *journal.Service
	logger  *logger.Logger
}

// NewTradesHandler creates a new trades handler
func NewTradesHandler(j *journal.Service, log *logger.Logger) *TradesHandler {
	return &TradesHandler{
		journal: j,
		logger:  log.WithField("handler", "trades"),
	}
}

type closeRequest struct {
	TradeID   string   `json:"tradeId"`
	ExitPrice *float64 `json:"exitPrice"`
}

// Create opens a new ACTIVE position
// POST /api/trades
func (h *TradesHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req journal.OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	h.respondHolding(w, r, http.StatusCreated, "Failed to create trade", func() (interface{}, error) {
		return h.journal.Open(r.Context(), uid, req)
	})
}

// Close exits the position named in the path
// POST /api/trades/{id}/close
func (h *TradesHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, mux.Vars(r)["id"])
}

// Exit exits the position named by tradeId in the body
// POST /api/trades/exit
func (h *TradesHandler) Exit(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, "")
}

func (h *TradesHandler) close(w http.ResponseWriter, r *http.Request, id string) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	// 본문 없이 호출하면 현재가로 청산
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if id == "" {
		id = req.TradeID
	}

	h.respondHolding(w, r, http.StatusOK, "Failed to close trade", func() (interface{}, error) {
		return h.journal.Close(r.Context(), uid, id, req.ExitPrice)
	})
}

// Active lists open positions valued at the current price
// GET /api/trades/active
func (h *TradesHandler) Active(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.journal.ActivePositions(r.Context(), uid)
	if err != nil {
		respondAppError(w, h.logger, err, "Failed to fetch active positions")
		return
	}
	respondJSON(w, r, http.StatusOK, summary)
}

// Closed lists closed trades with realized P&L totals
// GET /api/trades/closed
func (h *TradesHandler) Closed(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.journal.ClosedTrades(r.Context(), uid)
	if err != nil {
		respondAppError(w, h.logger, err, "Failed to fetch closed trades")
		return
	}
	respondJSON(w, r, http.StatusOK, summary)
}

func (h *TradesHandler) respondHolding(w http.ResponseWriter, r *http.Request, status int, failure string, fn func() (interface{}, error)) {
	holding, err := fn()
	if err != nil {
		respondAppError(w, h.logger, err, failure)
		return
	}
	respondJSON(w, r, status, map[string]interface{}{
		"success": true,
		"trade":   holding,
	})
}
