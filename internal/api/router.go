package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/wonny/tradelens/backend/internal/api/handlers"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/metrics"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps is everything the router wires together
type RouterDeps struct {
	Evaluate  *handlers.EvaluateHandler
	Trades    *handlers.TradesHandler
	Portfolio *handlers.PortfolioHandler
	Stream    *handlers.StreamHandler
	Analysis  *handlers.AnalysisHandler

	Auth           handlers.Authenticator
	Store          Pinger // optional, reported by /health
	Redis          Pinger // optional, reported by /health
	AllowedOrigins []string
	Metrics        *metrics.Metrics
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(deps.Store, deps.Redis)).Methods("GET")

	// Live positions (token in the query string; browsers cannot set headers on upgrade)
	r.HandleFunc("/ws/positions", deps.Stream.Positions).Methods("GET")

	// API
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware(deps.Auth, log))

	// Decision engine
	api.HandleFunc("/evaluate-trade-intent", deps.Evaluate.Evaluate).Methods("POST")

	// Journal
	api.HandleFunc("/trades", deps.Trades.Create).Methods("POST")
	api.HandleFunc("/trades/active", deps.Trades.Active).Methods("GET")
	api.HandleFunc("/trades/closed", deps.Trades.Closed).Methods("GET")
	api.HandleFunc("/trades/exit", deps.Trades.Exit).Methods("POST")
	api.HandleFunc("/trades/{id}/close", deps.Trades.Close).Methods("POST")

	// Portfolio analytics
	api.HandleFunc("/portfolio/stats", deps.Portfolio.Stats).Methods("GET")
	api.HandleFunc("/cache/clear", deps.Portfolio.ClearCache).Methods("POST")

	// AI commentary
	api.HandleFunc("/analyze-stock", deps.Analysis.AnalyzeStock).Methods("POST")
	api.HandleFunc("/analyze-trades", deps.Analysis.AnalyzeTrades).Methods("POST")
	api.HandleFunc("/stock-data", deps.Analysis.StockData).Methods("GET")

	// Apply middleware
	r.Use(requestIDMiddleware())
	r.Use(loggingMiddleware(log, deps.Metrics))
	r.Use(recoveryMiddleware(log))

	// CORS wraps the router so preflight requests never hit method matching
	return cors.Handler(corsOptions(deps.AllowedOrigins))(r)
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// healthCheckHandler returns server health status
// Only the holding store can degrade the service; Redis is reported but optional.
func healthCheckHandler(store, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		storeStatus := ping(ctx, store)
		if storeStatus != "ok" && storeStatus != "unconfigured" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  status,
			"service": "tradelens-api",
			"store":   storeStatus,
			"redis":   ping(ctx, cache),
		})
	}
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "unconfigured"
	}
	if err := p.Ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
