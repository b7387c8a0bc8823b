package quant

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/mathutil"
)

// SummaryInput is everything the narrative is composed from
type SummaryInput struct {
	Intent   contracts.TradeIntent
	Score    contracts.QuantScore
	Risk     contracts.RiskAssessment
	Factors  map[contracts.Factor]contracts.FactorScore
	Snapshot contracts.MarketSnapshot
}

var headlines = map[contracts.Recommendation]string{
	contracts.RecommendStrongBuy: "STRONG BUY signal across all factors.",
	contracts.RecommendBuy:       "Favorable setup supports a BUY.",
	contracts.RecommendNeutral:   "Mixed signals suggest caution.",
	contracts.RecommendAvoid:     "Weak factors indicate AVOID.",
}

// Summarize composes the deterministic human-readable summary
func Summarize(in SummaryInput) string {
	sym := in.Intent.Symbol
	lines := make([]string, 0, 7)

	// Headline
	headline, ok := headlines[in.Score.Recommendation]
	if !ok {
		headline = headlines[contracts.RecommendAvoid]
	}
	lines = append(lines, fmt.Sprintf("%s scores %d/100: %s", sym, in.Score.TotalScore, headline))

	// Price context
	if q := in.Snapshot.Quote; q != nil && q.Price > 0 {
		line := "Current price: " + FormatUSD(q.Price)
		if q.ChangePercent != nil {
			sign := ""
			if *q.ChangePercent > 0 {
				sign = "+"
			}
			line += fmt.Sprintf(" (%s%s%%)", sign, mathutil.FormatNumber(mathutil.Round2(*q.ChangePercent)))
		}
		lines = append(lines, line+".")
	}

	// Factor highlights
	if strongest, weakest, ok := extremes(in.Score.Breakdown); ok {
		lines = append(lines, fmt.Sprintf("Strongest factor: %s (%d/100). Weakest: %s (%d/100).",
			strongest, in.Score.Breakdown[strongest].Score, weakest, in.Score.Breakdown[weakest].Score))
	}

	// Risk
	if in.Risk.RiskViolation {
		lines = append(lines, fmt.Sprintf("Risk violations: %s.", strings.Join(in.Risk.Violations, "; ")))
	} else {
		lines = append(lines, fmt.Sprintf("Position size: %s%% of portfolio. Concentration risk: %s.",
			mathutil.FormatNumber(in.Risk.PositionSizePercent), in.Risk.ConcentrationRisk))
	}

	// Sector
	if sec, ok := in.Factors[contracts.FactorSector]; ok && sec.Sector != "" && sec.Sector != "Unknown" {
		industry := sec.Industry
		if industry == "" || industry == "Unknown" {
			industry = "N/A"
		}
		lines = append(lines, fmt.Sprintf("Sector: %s (%s).", sec.Sector, industry))
	}

	// Sentiment
	if sent, ok := in.Factors[contracts.FactorSentiment]; ok && sent.Brief != "" {
		lines = append(lines, "Sentiment: "+sent.Brief)
	}

	// Action
	switch {
	case in.Score.Recommendation == contracts.RecommendAvoid:
		lines = append(lines, "Recommendation: Consider waiting for better entry conditions.")
	case in.Intent.Action == contracts.ActionBuy:
		lines = append(lines, fmt.Sprintf("Recommendation: %s %d shares of %s at %s price.",
			in.Intent.Action, in.Intent.Quantity, sym, in.Intent.PriceTypeLabel()))
	}

	return strings.Join(lines, " ")
}

// extremes returns the first highest and first lowest factor in reporting order
func extremes(breakdown map[contracts.Factor]contracts.FactorContribution) (contracts.Factor, contracts.Factor, bool) {
	var strongest, weakest contracts.Factor
	found := false
	for _, f := range contracts.Factors {
		c, ok := breakdown[f]
		if !ok {
			continue
		}
		if !found {
			strongest, weakest, found = f, f, true
			continue
		}
		if c.Score > breakdown[strongest].Score {
			strongest = f
		}
		if c.Score < breakdown[weakest].Score {
			weakest = f
		}
	}
	return strongest, weakest, found
}

// FormatUSD renders an amount as "$1,234.56"
func FormatUSD(amount float64) string {
	cents := decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
	return money.New(cents, money.USD).Display()
}
