package brain

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/factors"
	"github.com/wonny/tradelens/backend/internal/intent"
	"github.com/wonny/tradelens/backend/internal/portfolio"
	"github.com/wonny/tradelens/backend/internal/quant"
	"github.com/wonny/tradelens/backend/internal/risk"
	"github.com/wonny/tradelens/backend/pkg/apperr"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/metrics"
)

// User-facing messages
const (
	MsgTextRequired     = `Please provide a trade intent (e.g., "Buy 20 AAPL at market price")`
	MsgParseFailed      = "Could not parse trade intent"
	MsgRateLimited      = "Alpha Vantage API rate limit reached (25 calls/day on free tier). Try again later."
	MsgEvaluationFailed = "Trade evaluation failed"
)

// MinTextLength is the shortest accepted intent text (after trimming)
const MinTextLength = 3

// Stage names used in logs and the fallback metric
const (
	StageMarketData = "market_data"
	StagePortfolio  = "portfolio"
	StageScore      = "score"
	StageAggregate  = "aggregate"
	StageRisk       = "risk"
	StageStats      = "stats"
)

// Evaluation outcomes
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailed      = "failed"
)

// analysisFailedNote is attached to a factor replaced by its neutral default
const analysisFailedNote = "Analysis failed"

// IntentParser turns free text into a trade intent
type IntentParser interface {
	Parse(ctx context.Context, text string) (contracts.TradeIntent, error)
}

// PortfolioSource returns a user's holdings newest first
type PortfolioSource interface {
	Load(ctx context.Context, userID string) (contracts.Portfolio, error)
}

// Orchestrator runs one trade-intent evaluation end to end
// ⭐ SSOT: 평가 파이프라인 조율과 단계별 fallback 매핑은 여기서만
type Orchestrator struct {
	parser     IntentParser
	gateway    contracts.MarketDataGateway
	portfolios PortfolioSource
	scorers    []factors.Scorer
	risk       *risk.Engine

	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(
	parser IntentParser,
	gateway contracts.MarketDataGateway,
	portfolios PortfolioSource,
	scorers []factors.Scorer,
	engine *risk.Engine,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		parser:     parser,
		gateway:    gateway,
		portfolios: portfolios,
		scorers:    scorers,
		risk:       engine,
		logger:     log,
		now:        time.Now,
	}
}

// WithMetrics records outcomes and fallbacks on m
func (o *Orchestrator) WithMetrics(m *metrics.Metrics) *Orchestrator {
	o.metrics = m
	return o
}

// Evaluate runs parse → fetch → score → aggregate → risk → stats → summary
//
// Errors are *apperr.Error. A rate-limited evaluation returns both a partial
// Evaluation carrying only the parsed intent and a KindRateLimit error.
// Once parsing succeeds the evaluation ignores cancellation of ctx.
func (o *Orchestrator) Evaluate(ctx context.Context, userID, text string) (eval *contracts.Evaluation, err error) {
	startTime := o.now()
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) < MinTextLength {
		o.metrics.Evaluation(OutcomeInvalid)
		return nil, apperr.Input(MsgTextRequired)
	}

	log := o.logger.WithField("user_id", userID)
	log.WithField("input", text).Info("Evaluating trade intent")

	parsed, err := o.parser.Parse(ctx, text)
	if err != nil {
		o.metrics.Evaluation(OutcomeInvalid)
		return nil, parseError(err)
	}
	log = log.WithField("symbol", parsed.Symbol)

	// 요청이 끊겨도 평가는 끝까지 수행
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("Evaluation panicked")
			o.metrics.Evaluation(OutcomeFailed)
			eval, err = nil, apperr.Internal(MsgEvaluationFailed, fmt.Errorf("panic: %v", r))
		}
	}()

	snapshot, err := o.fetchMarketData(ctx, log, parsed.Symbol)
	if err != nil {
		o.metrics.Evaluation(OutcomeRateLimited)
		return &contracts.Evaluation{ParsedIntent: &parsed, Timestamp: o.now().UTC()},
			apperr.Wrap(apperr.KindRateLimit, MsgRateLimited, err)
	}

	holdings := o.loadPortfolio(ctx, log, userID)

	in := factors.Input{Intent: parsed, Snapshot: snapshot, Portfolio: holdings}
	scores := o.runScorers(ctx, log, in)

	score := o.aggregate(log, scores)
	assessment := o.assessRisk(log, parsed, holdings, snapshot)
	stats := o.computeStats(log, holdings)

	summary := quant.Summarize(quant.SummaryInput{
		Intent:   parsed,
		Score:    score,
		Risk:     assessment,
		Factors:  scores,
		Snapshot: snapshot,
	})

	eval = &contracts.Evaluation{
		ParsedIntent:   &parsed,
		QuantScore:     report(score, scores),
		RiskMetrics:    &assessment,
		PortfolioStats: &stats,
		Recommendation: score.Recommendation,
		Summary:        summary,
		Timestamp:      o.now().UTC(),
		DataSource: &contracts.DataSource{
			Quote:     snapshot.Quote != nil,
			Overview:  snapshot.Overview != nil,
			Sentiment: sentimentSource(scores[contracts.FactorSentiment]),
			Portfolio: len(holdings) > 0,
		},
	}

	o.metrics.Evaluation(OutcomeOK)
	log.WithFields(map[string]interface{}{
		"total_score":    score.TotalScore,
		"recommendation": score.Recommendation,
		"duration_ms":    o.now().Sub(startTime).Milliseconds(),
	}).Info("Evaluation completed")

	return eval, nil
}

// parseError keeps the parser's actionable message for the caller
func parseError(err error) *apperr.Error {
	var pe *intent.ParseError
	if errors.As(err, &pe) && pe.Message != "" {
		return apperr.Wrap(apperr.KindInput, pe.Message, err)
	}
	return apperr.Wrap(apperr.KindInput, MsgParseFailed, err)
}

// ============================================================
// Stages
// ============================================================

// fetchMarketData reads quote and overview concurrently
// Only a rate limit is returned as an error; anything else degrades to nil data.
func (o *Orchestrator) fetchMarketData(ctx context.Context, log *logger.Logger, symbol string) (contracts.MarketSnapshot, error) {
	var (
		snapshot contracts.MarketSnapshot
		g        errgroup.Group
	)

	g.Go(func() error {
		q, err := guard(func() (*contracts.Quote, error) {
			return o.gateway.GetQuote(ctx, symbol)
		})
		if err := o.marketDataError(log, "quote", err); err != nil {
			return err
		}
		snapshot.Quote = q
		return nil
	})
	g.Go(func() error {
		ov, err := guard(func() (*contracts.Overview, error) {
			return o.gateway.GetOverview(ctx, symbol)
		})
		if err := o.marketDataError(log, "overview", err); err != nil {
			return err
		}
		snapshot.Overview = ov
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("Market data rate limited, skipping scoring")
		return contracts.MarketSnapshot{}, err
	}

	log.WithFields(map[string]interface{}{
		"quote":    snapshot.Quote != nil,
		"overview": snapshot.Overview != nil,
	}).Debug("Market data fetched")
	return snapshot, nil
}

// marketDataError decides whether a gateway error stops the evaluation
func (o *Orchestrator) marketDataError(log *logger.Logger, what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, contracts.ErrRateLimited):
		return err
	case errors.Is(err, contracts.ErrProviderNotConfigured):
		return nil
	default:
		o.metrics.Fallback(StageMarketData)
		log.WithError(err).WithField("data", what).Warn("Market data unavailable, continuing without it")
		return nil
	}
}

// loadPortfolio degrades to an empty portfolio on persistence failure
func (o *Orchestrator) loadPortfolio(ctx context.Context, log *logger.Logger, userID string) contracts.Portfolio {
	holdings, err := guard(func() (contracts.Portfolio, error) {
		return o.portfolios.Load(ctx, userID)
	})
	if err != nil {
		o.metrics.Fallback(StagePortfolio)
		log.WithError(err).WithField("stage", StagePortfolio).Warn("Portfolio unavailable, continuing with empty portfolio")
		return contracts.Portfolio{}
	}
	return holdings
}

// runScorers fans out every scorer and joins before returning
// Each scorer is isolated: an error or panic becomes its neutral default.
func (o *Orchestrator) runScorers(ctx context.Context, log *logger.Logger, in factors.Input) map[contracts.Factor]contracts.FactorScore {
	var (
		mu     sync.Mutex
		g      errgroup.Group
		scores = make(map[contracts.Factor]contracts.FactorScore, len(contracts.Factors))
	)

	for _, s := range o.scorers {
		g.Go(func() error {
			fs, err := guard(func() (contracts.FactorScore, error) {
				return s.Score(ctx, in)
			})
			if err != nil {
				o.metrics.Fallback(StageScore)
				log.WithError(err).WithFields(map[string]interface{}{
					"stage":  StageScore,
					"factor": s.Factor(),
				}).Warn("Scorer failed, using neutral default")
				fs = NeutralFactor(s.Factor())
			}
			fs.Factor = s.Factor()

			mu.Lock()
			scores[s.Factor()] = fs
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// 등록되지 않은 팩터도 중립값으로 채움
	for _, f := range contracts.Factors {
		if _, ok := scores[f]; !ok {
			scores[f] = NeutralFactor(f)
		}
	}
	return scores
}

// aggregate substitutes the neutral result when aggregation fails
func (o *Orchestrator) aggregate(log *logger.Logger, scores map[contracts.Factor]contracts.FactorScore) contracts.QuantScore {
	raw := make(map[contracts.Factor]int, len(scores))
	for f, s := range scores {
		raw[f] = s.Score
	}

	score, err := guard(func() (contracts.QuantScore, error) {
		return quant.Aggregate(raw)
	})
	if err != nil {
		o.metrics.Fallback(StageAggregate)
		log.WithError(err).WithField("stage", StageAggregate).Warn("Aggregation failed, using neutral score")
		return quant.Neutral()
	}
	return score
}

// assessRisk substitutes a zeroed UNKNOWN assessment on failure
func (o *Orchestrator) assessRisk(log *logger.Logger, in contracts.TradeIntent, holdings contracts.Portfolio, snapshot contracts.MarketSnapshot) contracts.RiskAssessment {
	assessment, err := guard(func() (contracts.RiskAssessment, error) {
		return o.risk.Assess(in, holdings, snapshot)
	})
	if err != nil {
		o.metrics.Fallback(StageRisk)
		log.WithError(err).WithField("stage", StageRisk).Warn("Risk assessment failed")
		return contracts.UnknownRisk(err.Error(), o.risk.Limits())
	}
	return assessment
}

// computeStats degrades to zeroed stats
func (o *Orchestrator) computeStats(log *logger.Logger, holdings contracts.Portfolio) contracts.StatsSummary {
	stats, err := guard(func() (contracts.StatsSummary, error) {
		return portfolio.Summary(portfolio.ComputeStats(holdings)), nil
	})
	if err != nil {
		o.metrics.Fallback(StageStats)
		log.WithError(err).WithField("stage", StageStats).Warn("Portfolio stats failed")
		return contracts.StatsSummary{TotalTrades: len(holdings)}
	}
	return stats
}

// ============================================================
// helpers
// ============================================================

// NeutralFactor is the substitute for a factor that could not be computed
// sentiment → 55 with the fallback brief, others → 50
func NeutralFactor(f contracts.Factor) contracts.FactorScore {
	fs := contracts.FactorScore{
		Factor:    f,
		Score:     factors.NeutralScore,
		Breakdown: map[string]contracts.MetricScore{},
		Note:      analysisFailedNote,
	}
	switch f {
	case contracts.FactorSentiment:
		fs.Score = factors.SentimentNeutral
		fs.Brief = factors.SentimentFallbackBrief
		fs.Source = factors.SentimentSourceFallback
	case contracts.FactorSector:
		fs.Sector = "Unknown"
	}
	return fs
}

// guard runs fn and turns a panic into an error
func guard[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func sentimentSource(fs contracts.FactorScore) string {
	if fs.Source == "" {
		return factors.SentimentSourceDefault
	}
	return fs.Source
}

// report merges the aggregate breakdown with each scorer's details
func report(score contracts.QuantScore, scores map[contracts.Factor]contracts.FactorScore) *contracts.ScoreReport {
	breakdown := make(map[contracts.Factor]contracts.FactorReport, len(contracts.Factors))
	for _, f := range contracts.Factors {
		fs := scores[f]
		details := fs.Breakdown
		if details == nil {
			details = map[string]contracts.MetricScore{}
		}
		contrib := score.Breakdown[f]
		breakdown[f] = contracts.FactorReport{
			Score:                fs.Score,
			Weight:               quant.WeightLabel(f),
			WeightedContribution: contrib.WeightedContribution,
			Details:              details,
			DataAvailable:        fs.DataAvailable,
			Note:                 fs.Note,
			SectorName:           fs.Sector,
			Industry:             fs.Industry,
			Brief:                fs.Brief,
			Source:               fs.Source,
		}
	}
	return &contracts.ScoreReport{
		TotalScore:     score.TotalScore,
		Recommendation: score.Recommendation,
		Confidence:     score.Confidence,
		Breakdown:      breakdown,
	}
}
