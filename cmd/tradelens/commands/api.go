package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/backend/internal/api"
	"github.com/wonny/tradelens/backend/internal/api/handlers"
	"github.com/wonny/tradelens/backend/internal/auth"
	"github.com/wonny/tradelens/backend/internal/scheduler"
	"github.com/wonny/tradelens/backend/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 캐시 정리 스케줄러 시작
- Prometheus 메트릭 서버 시작 (METRICS_ENABLED)

Endpoints:
  GET  /health                       - Health check
  POST /api/evaluate-trade-intent    - 매매 의도 평가
  POST /api/trades                   - 포지션 진입
  POST /api/trades/{id}/close        - 포지션 청산
  POST /api/trades/exit              - 포지션 청산 (body tradeId)
  GET  /api/trades/active            - 보유 포지션
  GET  /api/trades/closed            - 청산 내역
  GET  /api/portfolio/stats          - 포트폴리오 통계
  POST /api/cache/clear              - 캐시 초기화
  GET  /ws/positions?token=...       - 실시간 포지션

Example:
  go run ./cmd/tradelens api
  go run ./cmd/tradelens api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값 PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	log := a.log

	// 1. Metrics
	if a.metrics != nil {
		shutdownMetrics := a.metrics.Serve(cfg.MetricsPort, log)
		defer shutdownMetrics()
	}

	// 2. Scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewCacheSweepJob(log, a.portfolios.Sweeper(), a.prices.Sweeper())); err != nil {
		return fmt.Errorf("register cache sweep: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 3. HTTP
	verifier := auth.NewVerifier(cfg.Auth, log)
	var limiter handlers.Limiter
	if cfg.Redis.Enabled {
		limiter = a.limiter
	}

	router := api.NewRouter(api.RouterDeps{
		Evaluate:       handlers.NewEvaluateHandler(a.orchestrator, limiter, cfg.RateLimit.EvaluatePerMinute, log),
		Trades:         handlers.NewTradesHandler(a.journal, log),
		Portfolio:      handlers.NewPortfolioHandler(a.portfolios, a.prices, log),
		Stream:         handlers.NewStreamHandler(a.journal, verifier, cfg.Cache.PriceTTL, cfg.CORSAllowedOrigins, log),
		Analysis:       handlers.NewAnalysisHandler(a.analyst, log),
		Auth:           verifier,
		Store:          a.store,
		Redis:          a.redis,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        a.metrics,
	}, log)

	server := api.New(cfg, log, router)
	fmt.Printf("\n✅ Server running on http://localhost:%s (Ctrl+C to stop)\n", cfg.Port)

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
