package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

type fakeGenerator struct {
	available bool
	response  string
	err       error
	prompts   []string
	opts      []contracts.GenerateOptions
}

func (f *fakeGenerator) Available() bool { return f.available }

func (f *fakeGenerator) Generate(_ context.Context, prompt string, opts contracts.GenerateOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	return f.response, f.err
}

func TestAIStrategy_ValidatesOutput(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		symbol    string
		action    contracts.Action
		quantity  int
		priceType contracts.PriceType
		target    *float64
	}{
		{
			name:     "plain json",
			response: `{"action":"SELL","symbol":"nflx","quantity":3,"priceType":"LIMIT","targetPrice":410.5}`,
			symbol:   "NFLX", action: contracts.ActionSell, quantity: 3,
			priceType: contracts.PriceTypeLimit, target: contracts.Float(410.5),
		},
		{
			name:     "markdown fenced with string numbers",
			response: "```json\n{\"action\":\"buy\",\"symbol\":\"$AAPL\",\"quantity\":\"12.9\",\"priceType\":\"MARKET\",\"targetPrice\":null}\n```",
			symbol:   "AAPL", action: contracts.ActionBuy, quantity: 12, priceType: contracts.PriceTypeMarket,
		},
		{
			name:      "unknown action becomes buy and bad quantity becomes one",
			response:  `{"action":"HOLD","symbol":"V","quantity":-4,"priceType":"STOP"}`,
			symbol:    "V", action: contracts.ActionBuy, quantity: 1, priceType: contracts.PriceTypeMarket,
		},
		{
			name:      "limit without price collapses to market",
			response:  `{"action":"BUY","symbol":"MA","quantity":2,"priceType":"LIMIT","targetPrice":0}`,
			symbol:    "MA", action: contracts.ActionBuy, quantity: 2, priceType: contracts.PriceTypeMarket,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{available: true, response: tt.response}
			got, err := NewAIStrategy(gen).TryParse(context.Background(), "  grab a few of those  ")
			require.NoError(t, err)

			assert.Equal(t, tt.symbol, got.Symbol)
			assert.Equal(t, tt.action, got.Action)
			assert.Equal(t, tt.quantity, got.Quantity)
			assert.Equal(t, tt.priceType, got.PriceType)
			assert.Equal(t, tt.target, got.TargetPrice)
			assert.True(t, got.AIParsed)
			assert.Equal(t, "grab a few of those", got.RawInput)

			require.Len(t, gen.opts, 1)
			assert.InDelta(t, 0.1, gen.opts[0].Temperature, 1e-6)
			assert.Equal(t, int32(200), gen.opts[0].MaxOutputTokens)
		})
	}
}

func TestAIStrategy_Failures(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"not configured", &fakeGenerator{available: false}},
		{"provider error", &fakeGenerator{available: true, err: errors.New("503")}},
		{"no json", &fakeGenerator{available: true, response: "I cannot help with that"}},
		{"broken json", &fakeGenerator{available: true, response: `{"symbol": }`}},
		{"symbol too long", &fakeGenerator{available: true, response: `{"symbol":"ALPHABET"}`}},
		{"symbol missing", &fakeGenerator{available: true, response: `{"action":"BUY"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAIStrategy(tt.gen).TryParse(context.Background(), "whatever")
			assert.Error(t, err)
		})
	}
}

func TestParser_AIFallbackOnlyWhenDeterministicFails(t *testing.T) {
	gen := &fakeGenerator{available: true, response: `{"action":"BUY","symbol":"GOOGL","quantity":4}`}
	p := NewParser(gen, logger.NewNop())

	got, err := p.Parse(context.Background(), "Buy 20 AAPL at market price")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Empty(t, gen.prompts, "deterministic success must not call the provider")

	got, err = p.Parse(context.Background(), "pick up four shares of alphabet")
	require.NoError(t, err)
	assert.Equal(t, "GOOGL", got.Symbol)
	assert.True(t, got.AIParsed)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "pick up four shares of alphabet")
}

func TestParser_AIFailureReturnsDeterministicError(t *testing.T) {
	gen := &fakeGenerator{available: true, err: errors.New("timeout")}

	_, err := NewParser(gen, logger.NewNop()).Parse(context.Background(), "buy something")
	require.Error(t, err)
	assert.Equal(t, ErrUnrecognizedSymbol, err)
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":{"b":1}}`, ExtractJSONObject("prefix {\"a\":{\"b\":1}} suffix"))
	assert.Empty(t, ExtractJSONObject("no braces"))
}
