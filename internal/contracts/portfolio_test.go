package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPortfolio_SortByRecency(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := Portfolio{
		{Symbol: "A", Date: base},
		{Symbol: "B", Date: base.AddDate(0, 0, 2)},
		{Symbol: "C", Date: base.AddDate(0, 0, 1)},
	}

	p.SortByRecency()

	assert.Equal(t, "B", p[0].Symbol)
	assert.Equal(t, "C", p[1].Symbol)
	assert.Equal(t, "A", p[2].Symbol)
}

func TestPortfolio_Symbols(t *testing.T) {
	p := Portfolio{{Symbol: "aapl"}, {Symbol: "MSFT"}, {Symbol: "AAPL"}}

	assert.Equal(t, []string{"AAPL", "MSFT"}, p.Symbols())
	assert.Equal(t, 2, p.CountSymbol("AAPL"))
	assert.Equal(t, 0, p.CountSymbol("TSLA"))
}

func TestHolding_IsWin(t *testing.T) {
	assert.True(t, Holding{ProfitAndLoss: 0}.IsWin())
	assert.True(t, Holding{ProfitAndLoss: 10}.IsWin())
	assert.False(t, Holding{ProfitAndLoss: -0.01}.IsWin())
}

func TestTradeIntent_Helpers(t *testing.T) {
	price := 150.0
	limit := TradeIntent{PriceType: PriceTypeLimit, TargetPrice: &price}
	market := TradeIntent{PriceType: PriceTypeMarket}

	assert.True(t, limit.IsLimit())
	assert.False(t, market.IsLimit())
	assert.Equal(t, "market", market.PriceTypeLabel())
}

func TestDefaultRiskLimits(t *testing.T) {
	limits := DefaultRiskLimits()
	assert.Equal(t, 20.0, limits.MaxPositionPct)
	assert.Equal(t, 40.0, limits.MaxSectorPct)
	assert.Equal(t, 2.0, limits.MaxRiskPerTrade)

	unknown := UnknownRisk("boom", limits)
	assert.Equal(t, ConcentrationUnknown, unknown.ConcentrationRisk)
	assert.Empty(t, unknown.Violations)
	assert.Equal(t, "boom", unknown.Error)
}
