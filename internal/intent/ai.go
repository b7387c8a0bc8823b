package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

const aiPromptTemplate = `Parse this trade intent into structured data. Return ONLY valid JSON, no markdown.

Input: %q

Return exactly this JSON structure:
{
  "action": "BUY" or "SELL",
  "symbol": "STOCK_TICKER_SYMBOL",
  "quantity": number,
  "priceType": "MARKET" or "LIMIT",
  "targetPrice": number or null
}

Rules:
- symbol must be a valid stock ticker (1-5 uppercase letters)
- quantity defaults to 1 if not specified
- priceType is MARKET unless a specific price is mentioned
- targetPrice is null for MARKET orders`

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// AIStrategy asks a text generator to structure the intent
// Output is re-validated against the same constraints as the deterministic parser
type AIStrategy struct {
	gen contracts.TextGenerator
}

// NewAIStrategy creates the AI-assisted fallback strategy
func NewAIStrategy(gen contracts.TextGenerator) *AIStrategy {
	return &AIStrategy{gen: gen}
}

// Name returns the strategy name
func (s *AIStrategy) Name() string {
	return "ai"
}

// aiIntent is the loosely typed model output
type aiIntent struct {
	Action      string          `json:"action"`
	Symbol      string          `json:"symbol"`
	Quantity    json.RawMessage `json:"quantity"`
	PriceType   string          `json:"priceType"`
	TargetPrice json.RawMessage `json:"targetPrice"`
}

// TryParse sends text to the provider once; no retries
func (s *AIStrategy) TryParse(ctx context.Context, text string) (contracts.TradeIntent, error) {
	if s.gen == nil || !s.gen.Available() {
		return contracts.TradeIntent{}, contracts.ErrProviderNotConfigured
	}

	raw, err := s.gen.Generate(ctx, fmt.Sprintf(aiPromptTemplate, text), contracts.GenerateOptions{
		Temperature:     0.1,
		MaxOutputTokens: 200,
		JSON:            true,
	})
	if err != nil {
		return contracts.TradeIntent{}, fmt.Errorf("ai parse: %w", err)
	}

	obj := ExtractJSONObject(raw)
	if obj == "" {
		return contracts.TradeIntent{}, fmt.Errorf("ai parse: no JSON in response")
	}

	var parsed aiIntent
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return contracts.TradeIntent{}, fmt.Errorf("ai parse: decode: %w", err)
	}

	symbol, err := validateSymbol(parsed.Symbol)
	if err != nil {
		return contracts.TradeIntent{}, fmt.Errorf("ai parse: %w", err)
	}

	intent := contracts.TradeIntent{
		Action:    contracts.ActionBuy,
		Symbol:    symbol,
		Quantity:  normalizeQuantity(looseNumber(parsed.Quantity)),
		PriceType: contracts.PriceTypeMarket,
		RawInput:  strings.TrimSpace(text),
		AIParsed:  true,
	}
	if strings.EqualFold(parsed.Action, string(contracts.ActionSell)) {
		intent.Action = contracts.ActionSell
	}
	if strings.EqualFold(parsed.PriceType, string(contracts.PriceTypeLimit)) {
		intent.PriceType = contracts.PriceTypeLimit
		intent.TargetPrice = parsePositive(looseNumber(parsed.TargetPrice))
	}
	if intent.TargetPrice == nil {
		intent.PriceType = contracts.PriceTypeMarket
	}

	return intent, nil
}

// ExtractJSONObject returns the outermost {...} block in model output
func ExtractJSONObject(text string) string {
	return jsonObject.FindString(text)
}

// looseNumber accepts 12, 12.5, "12" and "12.5"; anything else yields ""
func looseNumber(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	return strings.ReplaceAll(s, ",", "")
}
