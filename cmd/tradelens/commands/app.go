package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wonny/tradelens/backend/internal/analysis"
	"github.com/wonny/tradelens/backend/internal/brain"
	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/external/alphavantage"
	"github.com/wonny/tradelens/backend/internal/external/gemini"
	"github.com/wonny/tradelens/backend/internal/factors"
	"github.com/wonny/tradelens/backend/internal/intent"
	"github.com/wonny/tradelens/backend/internal/journal"
	"github.com/wonny/tradelens/backend/internal/portfolio"
	"github.com/wonny/tradelens/backend/internal/pricing"
	"github.com/wonny/tradelens/backend/internal/risk"
	"github.com/wonny/tradelens/backend/internal/riskprofile"
	"github.com/wonny/tradelens/backend/internal/store"
	"github.com/wonny/tradelens/backend/pkg/config"
	"github.com/wonny/tradelens/backend/pkg/httputil"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/metrics"
	"github.com/wonny/tradelens/backend/pkg/redis"
)

// app holds every wired component
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics

	redis   *redis.Client
	limiter *redis.RateLimiter
	store   contracts.HoldingRepository

	marketData   *alphavantage.Client
	textGen      *gemini.Client
	parser       *intent.Chain
	portfolios   *portfolio.Loader
	prices       *pricing.Service
	journal      *journal.Service
	orchestrator *brain.Orchestrator
	analyst      *analysis.Service
}

// loadConfig reads config and applies global flag overrides
// quiet keeps logs off stdout for commands that print JSON
func loadConfig(quiet bool) (*config.Config, error) {
	if envFlag != "" {
		os.Setenv("ENV", envFlag)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "error"
	}
	return cfg, nil
}

// newApp connects to the store and providers and wires the decision engine
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}
	if err := applyRiskProfile(cfg, log); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 1. Redis (optional; disabled client is a no-op)
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb
	a.limiter = redis.NewRateLimiter(rdb, "ratelimit")

	// 2. Holding store
	repo, err := store.Open(ctx, cfg, log)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("open holding store: %w", err)
	}
	a.store = repo

	// 3. Providers
	remote := redis.NewCache(rdb, "tradelens")
	httpClient := httputil.NewWithTimeout(log, cfg.AlphaVantage.Timeout).
		WithPerMinute(cfg.AlphaVantage.RequestsPerMinute).
		WithRateLimiter(a.limiter, redis.AlphaVantageRateLimit(cfg.AlphaVantage.RequestsPerMinute))
	a.marketData = alphavantage.NewClient(cfg.AlphaVantage, httpClient, remote, log).
		WithMetrics(a.metrics)
	if !a.marketData.Available() {
		log.Warn("ALPHA_VANTAGE_API_KEY not set, market data disabled")
	}

	gen, err := gemini.New(ctx, cfg.Gemini, log)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("create text generator: %w", err)
	}
	a.textGen = gen.WithMetrics(a.metrics)

	// 4. Caches and services
	a.portfolios = portfolio.NewLoader(repo, cfg.Cache.PortfolioTTL, remote, log)
	a.prices = pricing.NewService(a.marketData, cfg.Cache.PriceTTL, remote, log)
	a.journal = journal.NewService(repo, a.prices, a.portfolios, log)

	// 5. Decision engine
	a.parser = intent.NewParser(a.textGen, log)
	a.orchestrator = brain.NewOrchestrator(
		a.parser,
		a.marketData,
		a.portfolios,
		factors.All(factors.NewSentimentScorer(a.textGen)),
		risk.NewEngine(riskLimits(cfg.Risk)),
		log,
	).WithMetrics(a.metrics)

	// 6. AI commentary
	a.analyst = analysis.NewService(a.textGen, a.marketData, a.portfolios, log)

	return a, nil
}

// Close releases the store and Redis connections
func (a *app) Close(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Shutdown(ctx); err != nil {
			a.log.WithError(err).Warn("Failed to close holding store")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}

// applyRiskProfile overlays RISK_PROFILE_FILE onto cfg
func applyRiskProfile(cfg *config.Config, log *logger.Logger) error {
	if cfg.RiskProfileFile == "" {
		return nil
	}

	profile, _, err := riskprofile.Load(cfg.RiskProfileFile)
	if err != nil {
		return fmt.Errorf("load risk profile: %w", err)
	}
	profile.Apply(cfg)

	hash, err := riskprofile.Hash(profile)
	if err != nil {
		return fmt.Errorf("hash risk profile: %w", err)
	}
	for _, w := range riskprofile.Warnings(profile) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	log.WithFields(map[string]interface{}{
		"profile_id": profile.Meta.ProfileID,
		"version":    profile.Meta.Version,
		"hash":       hash,
	}).Info("Risk profile applied")
	return nil
}

func riskLimits(c config.RiskConfig) contracts.RiskLimits {
	return contracts.RiskLimits{
		MaxPositionPct:  c.MaxPositionPct,
		MaxSectorPct:    c.MaxSectorPct,
		MaxRiskPerTrade: c.MaxRiskPerTrade,
	}
}
