package intent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// Strategy turns free text into a trade intent
// ⭐ SSOT: 파싱 전략 인터페이스 (결정적 → AI 순서로 시도)
type Strategy interface {
	Name() string
	TryParse(ctx context.Context, text string) (contracts.TradeIntent, error)
}

// ParseError is a user-actionable parsing failure
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ErrUnrecognizedSymbol is the deterministic failure for texts without a ticker
var ErrUnrecognizedSymbol = &ParseError{
	Message: "Could not identify stock symbol. Use uppercase (e.g., AAPL, TSLA).",
	Cause:   contracts.ErrNoSymbol,
}

// ============================================================
// Chain
// ============================================================

// Chain tries strategies in order and returns the first success
// When every strategy fails, the FIRST strategy's error is returned
type Chain struct {
	strategies []Strategy
	logger     *logger.Logger
}

// NewChain creates a parser chain
func NewChain(log *logger.Logger, strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		logger:     log,
	}
}

// NewParser builds the standard deterministic → AI chain
// gen may be nil, in which case only the deterministic strategy runs
func NewParser(gen contracts.TextGenerator, log *logger.Logger) *Chain {
	strategies := []Strategy{NewRegexStrategy()}
	if gen != nil {
		strategies = append(strategies, NewAIStrategy(gen))
	}
	return NewChain(log, strategies...)
}

// Parse runs the chain
func (c *Chain) Parse(ctx context.Context, text string) (contracts.TradeIntent, error) {
	var firstErr error

	for _, s := range c.strategies {
		intent, err := s.TryParse(ctx, text)
		if err == nil {
			if firstErr != nil {
				c.logger.WithFields(map[string]interface{}{
					"strategy": s.Name(),
					"symbol":   intent.Symbol,
				}).Info("Intent resolved by fallback strategy")
			}
			return intent, nil
		}

		if firstErr == nil {
			firstErr = err
		} else {
			c.logger.WithError(err).WithField("strategy", s.Name()).Warn("Fallback parse failed")
		}
	}

	if firstErr == nil {
		firstErr = errors.New("no parse strategy configured")
	}
	return contracts.TradeIntent{}, firstErr
}

// ============================================================
// Deterministic strategy
// ============================================================

// RegexStrategy is the offline, deterministic parser
type RegexStrategy struct{}

// NewRegexStrategy creates the deterministic parser
func NewRegexStrategy() *RegexStrategy {
	return &RegexStrategy{}
}

// Name returns the strategy name
func (s *RegexStrategy) Name() string {
	return "regex"
}

// TryParse extracts action, quantity, symbol and price from text
func (s *RegexStrategy) TryParse(_ context.Context, text string) (contracts.TradeIntent, error) {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return contracts.TradeIntent{}, &ParseError{Message: "Empty or invalid input"}
	}
	lower := strings.ToLower(normalized)

	symbol := extractSymbol(normalized)
	if symbol == "" {
		return contracts.TradeIntent{}, ErrUnrecognizedSymbol
	}

	priceType, target := extractPrice(normalized)

	return contracts.TradeIntent{
		Action:      detectAction(lower),
		Symbol:      symbol,
		Quantity:    extractQuantity(normalized),
		PriceType:   priceType,
		TargetPrice: target,
		RawInput:    normalized,
	}, nil
}

// detectAction returns BUY when any buy keyword appears, else SELL on a sell keyword, else BUY
func detectAction(lower string) contracts.Action {
	for _, m := range buyMatchers {
		if m.MatchString(lower) {
			return contracts.ActionBuy
		}
	}
	for _, m := range sellMatchers {
		if m.MatchString(lower) {
			return contracts.ActionSell
		}
	}
	return contracts.ActionBuy
}

// extractQuantity returns the first number in text, truncated, at least 1
func extractQuantity(text string) int {
	m := quantityPattern.FindStringSubmatch(text)
	if m == nil {
		return 1
	}
	return normalizeQuantity(strings.ReplaceAll(m[1], ",", ""))
}

func normalizeQuantity(raw string) int {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 1 {
		return 1
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// extractSymbol finds the first uppercase ticker-looking token
func extractSymbol(text string) string {
	for _, tok := range symbolPattern.FindAllString(text, -1) {
		if !isNoise(tok) {
			return tok
		}
	}

	// 대문자 티커가 없으면 첫 글자가 대문자인 단어를 후보로
	for _, word := range strings.Fields(text) {
		clean := nonLetters.ReplaceAllString(word, "")
		if len(clean) < 2 || len(clean) > 5 || isNoise(clean) {
			continue
		}
		if clean[0] >= 'A' && clean[0] <= 'Z' {
			return strings.ToUpper(clean)
		}
	}
	return ""
}

// extractPrice resolves MARKET vs LIMIT and the target price
func extractPrice(text string) (contracts.PriceType, *float64) {
	priceType := contracts.PriceTypeMarket
	var target *float64

	if m := limitPattern.FindStringSubmatch(text); m != nil {
		priceType, target = contracts.PriceTypeLimit, parsePositive(m[1])
	} else if m := pricePattern.FindStringSubmatch(text); m != nil {
		priceType, target = contracts.PriceTypeLimit, parsePositive(m[1])
	}

	// 명시적 시장가 표현이 있으면 지정가를 무시
	if marketPattern.MatchString(text) {
		return contracts.PriceTypeMarket, nil
	}
	if target == nil {
		return contracts.PriceTypeMarket, nil
	}
	return priceType, target
}

func parsePositive(raw string) *float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// validateSymbol enforces the 1–5 letter ticker shape
func validateSymbol(raw string) (string, error) {
	sym := nonLetters.ReplaceAllString(strings.ToUpper(raw), "")
	if len(sym) < 1 || len(sym) > 5 {
		return "", fmt.Errorf("invalid symbol %q", raw)
	}
	return sym, nil
}
