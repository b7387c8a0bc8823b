package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/wonny/tradelens/backend/internal/brain"
	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/apperr"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/redis"
)

// MsgTooManyEvaluations is returned when a user exceeds the inbound limit
const MsgTooManyEvaluations = "Too many evaluation requests. Try again in a minute."

// Evaluator runs one trade-intent evaluation
type Evaluator interface {
	Evaluate(ctx context.Context, userID, text string) (*contracts.Evaluation, error)
}

// Limiter is the per-user sliding window check
type Limiter interface {
	Allow(ctx context.Context, cfg redis.RateLimitConfig) (bool, int, error)
}

// EvaluateHandler serves the decision engine
// ⭐ SSOT: 평가 API 핸들러
type EvaluateHandler struct {
	evaluator Evaluator
	limiter   Limiter
	perMinute int
	logger    *logger.Logger
}

// NewEvaluateHandler creates the handler; limiter may be nil to disable the inbound limit
func NewEvaluateHandler(evaluator Evaluator, limiter Limiter, perMinute int, log *logger.Logger) *EvaluateHandler {
	return &EvaluateHandler{
		evaluator: evaluator,
		limiter:   limiter,
		perMinute: perMinute,
		logger:    log.WithField("handler", "evaluate"),
	}
}

type evaluateRequest struct {
	Text string `json:"text"`
}

// RateLimitedResponse is the 429 body; the parsed intent is still useful to the client
type RateLimitedResponse struct {
	Error        string                 `json:"error"`
	ParsedIntent *contracts.TradeIntent `json:"parsedIntent"`
}

// Evaluate parses, scores and risk-checks a free-text trade intent
// POST /api/evaluate-trade-intent
func (h *EvaluateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	if !h.allow(r.Context(), w, uid) {
		respondError(w, r, http.StatusTooManyRequests, MsgTooManyEvaluations)
		return
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) || errors.Is(err, io.EOF) {
			respondError(w, r, http.StatusBadRequest, brain.MsgTextRequired)
			return
		}
		h.logger.WithError(err).Error("Malformed evaluation request")
		respondError(w, r, http.StatusInternalServerError, brain.MsgEvaluationFailed)
		return
	}

	eval, err := h.evaluator.Evaluate(r.Context(), uid, req.Text)
	if err != nil {
		if apperr.IsKind(err, apperr.KindRateLimit) && eval != nil {
			respondJSON(w, r, http.StatusTooManyRequests, RateLimitedResponse{
				Error:        brain.MsgRateLimited,
				ParsedIntent: eval.ParsedIntent,
			})
			return
		}
		respondAppError(w, h.logger, err, brain.MsgEvaluationFailed)
		return
	}

	respondJSON(w, r, http.StatusOK, eval)
}

// allow applies the per-user limit; limiter failures let the request through
func (h *EvaluateHandler) allow(ctx context.Context, w http.ResponseWriter, uid string) bool {
	if h.limiter == nil || h.perMinute <= 0 {
		return true
	}

	allowed, remaining, err := h.limiter.Allow(ctx, redis.EvaluateRateLimit(uid, h.perMinute))
	if err != nil {
		h.logger.WithError(err).Warn("Rate limiter unavailable, allowing request")
		return true
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.perMinute))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	return allowed
}
