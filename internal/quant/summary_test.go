package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$187.44", FormatUSD(187.4399))
	assert.Equal(t, "$1,234.50", FormatUSD(1234.5))
	assert.Equal(t, "$0.00", FormatUSD(0))
}

func TestSummarize_Buy(t *testing.T) {
	score, err := Aggregate(map[contracts.Factor]int{
		contracts.FactorFundamental:  81,
		contracts.FactorTechnical:    72,
		contracts.FactorSector:       76,
		contracts.FactorSentiment:    55,
		contracts.FactorPortfolioFit: 75,
	})
	require.NoError(t, err)

	got := Summarize(SummaryInput{
		Intent: contracts.TradeIntent{
			Action: contracts.ActionBuy, Symbol: "AAPL", Quantity: 20, PriceType: contracts.PriceTypeMarket,
		},
		Score: score,
		Risk: contracts.RiskAssessment{
			PositionSizePercent: 12.5,
			ConcentrationRisk:   contracts.ConcentrationLow,
		},
		Factors: map[contracts.Factor]contracts.FactorScore{
			contracts.FactorSector:    {Sector: "TECHNOLOGY", Industry: "ELECTRONIC COMPUTERS"},
			contracts.FactorSentiment: {Brief: "Upbeat ahead of earnings."},
		},
		Snapshot: contracts.MarketSnapshot{Quote: &contracts.Quote{Price: 187.44, ChangePercent: contracts.Float(1.2345)}},
	})

	assert.Equal(t, "AAPL scores 74/100: Favorable setup supports a BUY. "+
		"Current price: $187.44 (+1.23%). "+
		"Strongest factor: fundamental (81/100). Weakest: sentiment (55/100). "+
		"Position size: 12.5% of portfolio. Concentration risk: LOW. "+
		"Sector: TECHNOLOGY (ELECTRONIC COMPUTERS). "+
		"Sentiment: Upbeat ahead of earnings. "+
		"Recommendation: BUY 20 shares of AAPL at market price.", got)
}

func TestSummarize_AvoidWithViolations(t *testing.T) {
	score, err := Aggregate(uniform(30))
	require.NoError(t, err)

	got := Summarize(SummaryInput{
		Intent: contracts.TradeIntent{Action: contracts.ActionBuy, Symbol: "GME", Quantity: 100},
		Score:  score,
		Risk: contracts.RiskAssessment{
			RiskViolation: true,
			Violations:    []string{"Position size (50%) exceeds max 20%", "GME allocation (100%) exceeds max 40%"},
		},
		Factors: map[contracts.Factor]contracts.FactorScore{
			contracts.FactorSector: {Sector: "Unknown"},
		},
	})

	assert.Equal(t, "GME scores 30/100: Weak factors indicate AVOID. "+
		"Strongest factor: fundamental (30/100). Weakest: fundamental (30/100). "+
		"Risk violations: Position size (50%) exceeds max 20%; GME allocation (100%) exceeds max 40%. "+
		"Recommendation: Consider waiting for better entry conditions.", got)
}

func TestSummarize_SellHasNoActionLine(t *testing.T) {
	got := Summarize(SummaryInput{
		Intent: contracts.TradeIntent{Action: contracts.ActionSell, Symbol: "TSLA", Quantity: 5},
		Score:  Neutral(),
		Risk:   contracts.RiskAssessment{ConcentrationRisk: contracts.ConcentrationHigh},
		Snapshot: contracts.MarketSnapshot{
			Quote: &contracts.Quote{Price: 250, ChangePercent: contracts.Float(-2.5)},
		},
	})
	assert.Contains(t, got, "Current price: $250.00 (-2.5%).")
	assert.Contains(t, got, "Mixed signals suggest caution.")
	assert.NotContains(t, got, "Recommendation:")
}
