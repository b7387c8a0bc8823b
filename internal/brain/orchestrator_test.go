package brain

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/factors"
	"github.com/wonny/tradelens/backend/internal/intent"
	"github.com/wonny/tradelens/backend/internal/risk"
	"github.com/wonny/tradelens/backend/pkg/apperr"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// ============================================================
// fakes
// ============================================================

type fakeGateway struct {
	quote       *contracts.Quote
	overview    *contracts.Overview
	quoteErr    error
	overviewErr error
	calls       atomic.Int32
}

func (g *fakeGateway) GetQuote(ctx context.Context, _ string) (*contracts.Quote, error) {
	g.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.quote, g.quoteErr
}

func (g *fakeGateway) GetOverview(ctx context.Context, _ string) (*contracts.Overview, error) {
	g.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.overview, g.overviewErr
}

type fakePortfolios struct {
	holdings contracts.Portfolio
	err      error
}

func (p *fakePortfolios) Load(_ context.Context, _ string) (contracts.Portfolio, error) {
	return p.holdings, p.err
}

type failingGenerator struct{}

func (failingGenerator) Available() bool { return true }

func (failingGenerator) Generate(context.Context, string, contracts.GenerateOptions) (string, error) {
	return "", errors.New("upstream 503")
}

type countingScorer struct {
	factors.Scorer
	calls atomic.Int32
}

func (s *countingScorer) Score(ctx context.Context, in factors.Input) (contracts.FactorScore, error) {
	s.calls.Add(1)
	return s.Scorer.Score(ctx, in)
}

type panickingScorer struct{ factor contracts.Factor }

func (s panickingScorer) Factor() contracts.Factor { return s.factor }

func (s panickingScorer) Score(context.Context, factors.Input) (contracts.FactorScore, error) {
	panic("nil overview dereference")
}

func appleQuote() *contracts.Quote {
	return &contracts.Quote{Symbol: "AAPL", Price: 187.44, Change: contracts.Float(2.28), ChangePercent: contracts.Float(1.2313), Volume: 1000}
}

func appleOverview() *contracts.Overview {
	return &contracts.Overview{
		Symbol:   "AAPL",
		Name:     "Apple Inc",
		Sector:   "TECHNOLOGY",
		Industry: "ELECTRONIC COMPUTERS",
		PERatio:  contracts.Float(29.1),
		ROE:      contracts.Float(1.47),
		Beta:     contracts.Float(1.24),
		MA50:     contracts.Float(180),
		MA200:    contracts.Float(175),
		High52:   contracts.Float(199.62),
		Low52:    contracts.Float(164.08),
	}
}

func newTestOrchestrator(gw contracts.MarketDataGateway, p PortfolioSource, scorers ...factors.Scorer) *Orchestrator {
	if len(scorers) == 0 {
		scorers = factors.All(factors.NewSentimentScorer(nil))
	}
	o := NewOrchestrator(
		intent.NewParser(nil, logger.NewNop()),
		gw,
		p,
		scorers,
		risk.NewEngine(contracts.DefaultRiskLimits()),
		logger.NewNop(),
	)
	o.now = func() time.Time { return time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC) }
	return o
}

// ============================================================
// input validation
// ============================================================

func TestEvaluate_RejectsShortText(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{}, &fakePortfolios{})

	for _, text := range []string{"", "  ", "hi", " ab ", "株", "买入"} {
		eval, err := o.Evaluate(context.Background(), "u1", text)
		assert.Nil(t, eval)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInput, apperr.KindOf(err), "text %q", text)
		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, MsgTextRequired, appErr.Message)
	}
}

type panickingGateway struct{}

func (panickingGateway) GetQuote(context.Context, string) (*contracts.Quote, error) {
	panic("decoder exploded")
}

func (panickingGateway) GetOverview(context.Context, string) (*contracts.Overview, error) {
	panic("decoder exploded")
}

func TestEvaluate_PanickingGatewayDegrades(t *testing.T) {
	o := newTestOrchestrator(panickingGateway{}, &fakePortfolios{})

	eval, err := o.Evaluate(context.Background(), "u1", "Buy 20 AAPL at market price")
	require.NoError(t, err)
	require.NotNil(t, eval)
	assert.False(t, eval.DataSource.Quote)
	assert.False(t, eval.DataSource.Overview)
	assert.Equal(t, 50, eval.QuantScore.Breakdown[contracts.FactorFundamental].Score)
}

func TestEvaluate_UnparseableIntent(t *testing.T) {
	gw := &fakeGateway{}
	o := newTestOrchestrator(gw, &fakePortfolios{})

	_, err := o.Evaluate(context.Background(), "u1", "buy some shares please")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInput, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Use uppercase (e.g., AAPL, TSLA)")
	assert.True(t, errors.Is(err, contracts.ErrNoSymbol))
	assert.Zero(t, gw.calls.Load(), "market data must not be fetched")
}

// ============================================================
// end-to-end scenarios
// ============================================================

func TestEvaluate_MarketBuyEmptyPortfolio(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{quote: appleQuote(), overview: appleOverview()}, &fakePortfolios{})

	eval, err := o.Evaluate(context.Background(), "u1", "Buy 20 AAPL at market price")
	require.NoError(t, err)
	require.NotNil(t, eval)

	require.NotNil(t, eval.ParsedIntent)
	assert.Equal(t, contracts.ActionBuy, eval.ParsedIntent.Action)
	assert.Equal(t, "AAPL", eval.ParsedIntent.Symbol)
	assert.Equal(t, 20, eval.ParsedIntent.Quantity)
	assert.Equal(t, contracts.PriceTypeMarket, eval.ParsedIntent.PriceType)
	assert.Nil(t, eval.ParsedIntent.TargetPrice)

	require.NotNil(t, eval.QuantScore)
	assert.Len(t, eval.QuantScore.Breakdown, 5)
	fit := eval.QuantScore.Breakdown[contracts.FactorPortfolioFit]
	assert.Equal(t, 75, fit.Score)
	assert.Equal(t, "20%", fit.Weight)
	assert.Equal(t, 15, fit.WeightedContribution)
	assert.Equal(t, "TECHNOLOGY", eval.QuantScore.Breakdown[contracts.FactorSector].SectorName)
	assert.Equal(t, eval.QuantScore.Recommendation, eval.Recommendation)

	require.NotNil(t, eval.RiskMetrics)
	assert.Equal(t, 187.44, eval.RiskMetrics.CurrentPrice)
	assert.Equal(t, 3748.8, eval.RiskMetrics.TradeValue)

	require.NotNil(t, eval.PortfolioStats)
	assert.Zero(t, eval.PortfolioStats.TotalTrades)

	assert.Equal(t, &contracts.DataSource{
		Quote:     true,
		Overview:  true,
		Sentiment: factors.SentimentSourceDefault,
		Portfolio: false,
	}, eval.DataSource)
	assert.Contains(t, eval.Summary, "AAPL scores ")
	assert.Contains(t, eval.Summary, "Current price: $187.44 (+1.23%).")
	assert.Equal(t, time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC), eval.Timestamp)
}

func TestEvaluate_ProviderDownIsNeutral(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{}, &fakePortfolios{})

	eval, err := o.Evaluate(context.Background(), "u1", "Buy 20 AAPL at market price")
	require.NoError(t, err)

	b := eval.QuantScore.Breakdown
	assert.Equal(t, 50, b[contracts.FactorFundamental].Score)
	assert.Equal(t, 50, b[contracts.FactorTechnical].Score)
	assert.Equal(t, 50, b[contracts.FactorSector].Score)
	assert.Equal(t, 55, b[contracts.FactorSentiment].Score)
	assert.Equal(t, 75, b[contracts.FactorPortfolioFit].Score)

	// 15 + 12.5 + 7.5 + 5.5 + 15 = 55.5
	assert.Equal(t, 56, eval.QuantScore.TotalScore)
	assert.Equal(t, contracts.RecommendNeutral, eval.Recommendation)
	assert.False(t, eval.DataSource.Quote)
	assert.False(t, eval.DataSource.Overview)
	assert.Zero(t, eval.RiskMetrics.TradeValue)
}

func TestEvaluate_RateLimitReturnsParsedIntent(t *testing.T) {
	tests := []struct {
		name string
		gw   *fakeGateway
	}{
		{"quote", &fakeGateway{quoteErr: fmt.Errorf("GLOBAL_QUOTE AAPL: %w", contracts.ErrRateLimited), overview: appleOverview()}},
		{"overview", &fakeGateway{quote: appleQuote(), overviewErr: contracts.ErrRateLimited}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &countingScorer{Scorer: factors.NewFundamentalScorer()}
			o := newTestOrchestrator(tt.gw, &fakePortfolios{}, scorer)

			eval, err := o.Evaluate(context.Background(), "u1", "Buy 20 AAPL at market price")
			require.Error(t, err)
			assert.Equal(t, apperr.KindRateLimit, apperr.KindOf(err))
			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, MsgRateLimited, appErr.Message)
			assert.True(t, errors.Is(err, contracts.ErrRateLimited))

			require.NotNil(t, eval)
			require.NotNil(t, eval.ParsedIntent)
			assert.Equal(t, "AAPL", eval.ParsedIntent.Symbol)
			assert.Nil(t, eval.QuantScore)
			assert.Nil(t, eval.RiskMetrics)
			assert.Zero(t, scorer.calls.Load(), "no scoring after a rate limit")
		})
	}
}

func TestEvaluate_ConcentratedPortfolio(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	symbols := []string{"AAPL", "AAPL", "MSFT", "AAPL", "NVDA", "AAPL", "TSLA", "AAPL", "AMZN", "AAPL"}
	holdings := make(contracts.Portfolio, 0, len(symbols))
	for i, sym := range symbols {
		holdings = append(holdings, contracts.Holding{
			Symbol:        sym,
			Status:        contracts.StatusLegacy,
			ProfitAndLoss: float64(10 * (i + 1)),
			Date:          base.AddDate(0, 0, -i),
		})
	}
	o := newTestOrchestrator(&fakeGateway{quote: appleQuote()}, &fakePortfolios{holdings: holdings})

	eval, err := o.Evaluate(context.Background(), "u1", "Buy 5 AAPL")
	require.NoError(t, err)

	fit := eval.QuantScore.Breakdown[contracts.FactorPortfolioFit]
	assert.LessOrEqual(t, fit.Details["concentration"].Score, 30)
	assert.Less(t, fit.Score, 75)
	assert.Equal(t, 10, eval.PortfolioStats.TotalTrades)
	assert.True(t, eval.DataSource.Portfolio)
}

// ============================================================
// degradation
// ============================================================

func TestEvaluate_PersistenceFailureUsesEmptyPortfolio(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{quote: appleQuote()}, &fakePortfolios{err: errors.New("connection refused")})

	eval, err := o.Evaluate(context.Background(), "u1", "Buy 20 AAPL")
	require.NoError(t, err)
	assert.Equal(t, 75, eval.QuantScore.Breakdown[contracts.FactorPortfolioFit].Score)
	assert.False(t, eval.DataSource.Portfolio)
	assert.Zero(t, eval.PortfolioStats.TotalTrades)
}

func TestEvaluate_SentimentFailureFallsBack(t *testing.T) {
	scorers := factors.All(factors.NewSentimentScorer(failingGenerator{}))
	o := newTestOrchestrator(&fakeGateway{quote: appleQuote(), overview: appleOverview()}, &fakePortfolios{}, scorers...)

	eval, err := o.Evaluate(context.Background(), "u1", "Buy 20 AAPL")
	require.NoError(t, err)

	sent := eval.QuantScore.Breakdown[contracts.FactorSentiment]
	assert.Equal(t, 55, sent.Score)
	assert.Equal(t, factors.SentimentFallbackBrief, sent.Brief)
	assert.Equal(t, factors.SentimentSourceFallback, eval.DataSource.Sentiment)
	assert.Contains(t, eval.Summary, "Sentiment: Sentiment analysis unavailable")
}

func TestEvaluate_PanickingScorerIsIsolated(t *testing.T) {
	scorers := []factors.Scorer{
		panickingScorer{factor: contracts.FactorFundamental},
		factors.NewTechnicalScorer(),
		factors.NewSectorScorer(),
		factors.NewSentimentScorer(nil),
		factors.NewPortfolioFitScorer(),
	}
	o := newTestOrchestrator(&fakeGateway{quote: appleQuote(), overview: appleOverview()}, &fakePortfolios{}, scorers...)

	eval, err := o.Evaluate(context.Background(), "u1", "Buy 20 AAPL")
	require.NoError(t, err)

	fund := eval.QuantScore.Breakdown[contracts.FactorFundamental]
	assert.Equal(t, 50, fund.Score)
	assert.Equal(t, analysisFailedNote, fund.Note)
	assert.Empty(t, fund.Details)
	assert.Equal(t, 75, eval.QuantScore.Breakdown[contracts.FactorPortfolioFit].Score)
}

func TestEvaluate_MissingScorerIsNeutral(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{}, &fakePortfolios{}, factors.NewPortfolioFitScorer())

	eval, err := o.Evaluate(context.Background(), "u1", "Buy 20 AAPL")
	require.NoError(t, err)
	assert.Len(t, eval.QuantScore.Breakdown, 5)
	assert.Equal(t, 55, eval.QuantScore.Breakdown[contracts.FactorSentiment].Score)
	assert.Equal(t, "Unknown", eval.QuantScore.Breakdown[contracts.FactorSector].SectorName)
}

func TestEvaluate_InvalidRiskLimitsDegrade(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{quote: appleQuote()}, &fakePortfolios{})
	o.risk = risk.NewEngine(contracts.RiskLimits{})

	eval, err := o.Evaluate(context.Background(), "u1", "Buy 20 AAPL")
	require.NoError(t, err)
	assert.Equal(t, contracts.ConcentrationUnknown, eval.RiskMetrics.ConcentrationRisk)
	assert.NotEmpty(t, eval.RiskMetrics.Error)
	assert.False(t, eval.RiskMetrics.RiskViolation)
	assert.Empty(t, eval.RiskMetrics.Violations)
}

func TestEvaluate_IgnoresCancellationAfterParse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(&fakeGateway{quote: appleQuote(), overview: appleOverview()}, &fakePortfolios{})
	eval, err := o.Evaluate(ctx, "u1", "Buy 20 AAPL")
	require.NoError(t, err)
	assert.True(t, eval.DataSource.Quote)
	assert.True(t, eval.DataSource.Overview)
}

func TestEvaluate_NotConfiguredProviderIsSilent(t *testing.T) {
	gw := &fakeGateway{quoteErr: contracts.ErrProviderNotConfigured, overviewErr: contracts.ErrProviderNotConfigured}
	o := newTestOrchestrator(gw, &fakePortfolios{})

	eval, err := o.Evaluate(context.Background(), "u1", "Buy 20 AAPL")
	require.NoError(t, err)
	assert.False(t, eval.DataSource.Quote)
	assert.Equal(t, 50, eval.QuantScore.Breakdown[contracts.FactorFundamental].Score)
}

func TestNeutralFactor(t *testing.T) {
	for _, f := range contracts.Factors {
		fs := NeutralFactor(f)
		assert.Equal(t, f, fs.Factor)
		assert.NotNil(t, fs.Breakdown)
		if f == contracts.FactorSentiment {
			assert.Equal(t, 55, fs.Score)
			continue
		}
		assert.Equal(t, 50, fs.Score)
	}
}
