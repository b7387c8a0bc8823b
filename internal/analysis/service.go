package analysis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/portfolio"
	"github.com/wonny/tradelens/backend/pkg/apperr"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// Commentary sources
const (
	SourceAI       = "gemini"
	SourceFallback = "fallback"
	SourceStatic   = "static"
)

// PortfolioSymbol asks AnalyzeStock for a review of the caller's journal
const PortfolioSymbol = "PORTFOLIO"

// User-facing messages
const (
	MsgSymbolRequired  = "Stock symbol is required"
	MsgInvalidSymbol   = "Invalid stock symbol. Use a ticker such as AAPL or BRK.B"
	MsgQuoteRateLimit  = "API call frequency limit reached. Try again later."
	MsgQuoteNotConfig  = "Alpha Vantage API key not configured"
	MsgQuoteFailed     = "Failed to fetch stock data"
	MsgPortfolioFailed = "Portfolio analysis failed"
)

// Default verdict when the commentary does not state one
const (
	DefaultRating     = "Needs Improvement"
	DefaultConfidence = "Medium"
)

var (
	symbolPattern  = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)
	verdictPattern = regexp.MustCompile(`(?is)\*\*VERDICT\*\*.*?rating:\s*\**\s*(Excellent|Good|Needs Improvement|Poor).*?confidence:\s*\**\s*(High|Medium|Low)`)
	verdictSection = regexp.MustCompile(`(?is)\*\*VERDICT\*\*\s*(.*)$`)
)

// PortfolioSource is the cached portfolio read path
type PortfolioSource interface {
	Load(ctx context.Context, userID string) (contracts.Portfolio, error)
}

// Service writes long-form AI commentary on single stocks and on a user's journal
// Every report degrades to deterministic text when the provider is missing or fails.
type Service struct {
	gen        contracts.TextGenerator
	gateway    contracts.MarketDataGateway
	portfolios PortfolioSource
	now        func() time.Time
	logger     *logger.Logger
}

// NewService creates the commentary service; gen may be nil
func NewService(gen contracts.TextGenerator, gateway contracts.MarketDataGateway, portfolios PortfolioSource, log *logger.Logger) *Service {
	return &Service{
		gen:        gen,
		gateway:    gateway,
		portfolios: portfolios,
		now:        time.Now,
		logger:     log.WithField("component", "analysis"),
	}
}

// StockReport is a research note for one symbol (or the whole journal)
type StockReport struct {
	StockSymbol string                   `json:"stockSymbol"`
	Exchange    string                   `json:"exchange"`
	Timestamp   time.Time                `json:"timestamp"`
	RawAnalysis string                   `json:"rawAnalysis"`
	Source      string                   `json:"source"`
	StockData   *contracts.MarketSnapshot `json:"stockData,omitempty"`
}

// Verdict is the overall rating of a trading journal
type Verdict struct {
	Rating     string `json:"rating"`
	Confidence string `json:"confidence"`
	Analysis   string `json:"analysis"`
}

// TradesReport is the journal review returned by AnalyzeTrades
type TradesReport struct {
	Summary         string                   `json:"summary"`
	Recommendations []string                 `json:"recommendations,omitempty"`
	Metrics         contracts.PortfolioStats `json:"metrics"`
	Verdict         Verdict                  `json:"verdict"`
	Source          string                   `json:"source"`
}

// NormalizeSymbol upper-cases and validates a ticker
func NormalizeSymbol(raw string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	if sym == "" {
		return "", apperr.Input(MsgSymbolRequired)
	}
	if !symbolPattern.MatchString(sym) {
		return "", apperr.Input(MsgInvalidSymbol)
	}
	return sym, nil
}

// ============================================================
// Quote proxy
// ============================================================

// StockData returns the latest quote for symbol
func (s *Service) StockData(ctx context.Context, symbol string) (*contracts.Quote, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	q, err := s.gateway.GetQuote(ctx, sym)
	switch {
	case errors.Is(err, contracts.ErrRateLimited):
		return nil, apperr.Wrap(apperr.KindRateLimit, MsgQuoteRateLimit, err)
	case errors.Is(err, contracts.ErrProviderNotConfigured):
		return nil, apperr.Wrap(apperr.KindUnavailable, MsgQuoteNotConfig, err)
	case err != nil:
		return nil, apperr.Wrap(apperr.KindUnavailable, MsgQuoteFailed, err)
	case q == nil:
		return nil, apperr.New(apperr.KindNotFound,
			fmt.Sprintf("Stock data not found for symbol: %s. Please verify the symbol is correct.", sym))
	}
	return q, nil
}

// ============================================================
// Stock commentary
// ============================================================

// AnalyzeStock writes a research note for symbol
// The PORTFOLIO pseudo-symbol reviews the caller's journal instead.
func (s *Service) AnalyzeStock(ctx context.Context, userID, symbol, exchange string) (*StockReport, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if sym == PortfolioSymbol {
		return s.analyzePortfolio(ctx, userID)
	}

	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	if exchange == "" {
		exchange = "N/A"
	}
	log := s.logger.WithFields(map[string]interface{}{"user_id": userID, "symbol": sym})

	snapshot := s.fetch(ctx, log, sym)
	now := s.now()

	text, source := s.generate(ctx, log, stockPrompt(sym, exchange, snapshot, now))
	if source == SourceFallback {
		text = stockFallback(sym, snapshot)
	}

	report := &StockReport{
		StockSymbol: sym,
		Exchange:    exchange,
		Timestamp:   now,
		RawAnalysis: text,
		Source:      source,
	}
	if snapshot.Quote != nil || snapshot.Overview != nil {
		report.StockData = &snapshot
	}
	return report, nil
}

// fetch reads quote and overview concurrently; any failure leaves that half nil
func (s *Service) fetch(ctx context.Context, log *logger.Logger, symbol string) contracts.MarketSnapshot {
	var (
		snapshot contracts.MarketSnapshot
		g        errgroup.Group
	)

	g.Go(func() error {
		q, err := s.gateway.GetQuote(ctx, symbol)
		if err != nil {
			log.WithError(err).Warn("Quote unavailable for commentary")
		}
		snapshot.Quote = q
		return nil
	})
	g.Go(func() error {
		ov, err := s.gateway.GetOverview(ctx, symbol)
		if err != nil {
			log.WithError(err).Warn("Overview unavailable for commentary")
		}
		snapshot.Overview = ov
		return nil
	})
	_ = g.Wait()

	return snapshot
}

func (s *Service) analyzePortfolio(ctx context.Context, userID string) (*StockReport, error) {
	holdings, err := s.portfolios.Load(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, MsgPortfolioFailed, err)
	}

	report := &StockReport{
		StockSymbol: PortfolioSymbol,
		Exchange:    "ANALYSIS",
		Timestamp:   s.now(),
	}
	if len(holdings) == 0 {
		report.RawAnalysis = emptyPortfolioNote
		report.Source = SourceStatic
		return report, nil
	}

	log := s.logger.WithFields(map[string]interface{}{"user_id": userID, "trades": len(holdings)})
	stats := portfolio.ComputeStats(holdings)

	text, source := s.generate(ctx, log, portfolioPrompt(stats, holdings))
	if source == SourceFallback {
		text = journalFallback(stats, holdings)
	}
	report.RawAnalysis = text
	report.Source = source
	return report, nil
}

// ============================================================
// Journal review
// ============================================================

// AnalyzeTrades reviews the caller's whole journal and rates it
func (s *Service) AnalyzeTrades(ctx context.Context, userID string) (*TradesReport, error) {
	holdings, err := s.portfolios.Load(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, MsgPortfolioFailed, err)
	}

	stats := portfolio.ComputeStats(holdings)
	if len(holdings) == 0 {
		return &TradesReport{
			Summary:         emptyJournalSummary,
			Recommendations: emptyJournalSteps,
			Metrics:         stats,
			Verdict:         Verdict{Rating: "No Data", Confidence: "N/A", Analysis: "No trades available for analysis"},
			Source:          SourceStatic,
		}, nil
	}

	log := s.logger.WithFields(map[string]interface{}{"user_id": userID, "trades": len(holdings)})

	text, source := s.generate(ctx, log, tradesPrompt(stats, holdings))
	if source == SourceFallback {
		return &TradesReport{
			Summary: journalFallback(stats, holdings),
			Metrics: stats,
			Verdict: Verdict{Rating: DefaultRating, Confidence: "Low", Analysis: "AI commentary unavailable; verdict not assessed"},
			Source:  SourceFallback,
		}, nil
	}

	return &TradesReport{
		Summary: text,
		Metrics: stats,
		Verdict: ParseVerdict(text),
		Source:  source,
	}, nil
}

// ParseVerdict pulls rating and confidence out of the VERDICT section
func ParseVerdict(text string) Verdict {
	v := Verdict{Rating: DefaultRating, Confidence: DefaultConfidence}
	if m := verdictPattern.FindStringSubmatch(text); m != nil {
		v.Rating = titleWords(m[1])
		v.Confidence = titleWords(m[2])
	}
	if m := verdictSection.FindStringSubmatch(text); m != nil {
		v.Analysis = strings.TrimSpace(m[1])
	}
	return v
}

func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// generate returns the provider text, or ("", SourceFallback) when it cannot
func (s *Service) generate(ctx context.Context, log *logger.Logger, prompt string) (string, string) {
	if s.gen == nil || !s.gen.Available() {
		log.Debug("AI provider not configured, using fallback commentary")
		return "", SourceFallback
	}

	text, err := s.gen.Generate(ctx, prompt, contracts.GenerateOptions{
		Temperature:     0.4,
		MaxOutputTokens: 2048,
	})
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		log.WithError(err).Warn("AI commentary failed, using fallback")
		return "", SourceFallback
	}
	return text, SourceAI
}

// recentFirst returns a copy of p sorted newest first
func recentFirst(p contracts.Portfolio) contracts.Portfolio {
	out := make(contracts.Portfolio, len(p))
	copy(out, p)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
