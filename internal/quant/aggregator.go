package quant

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// Weights is the fixed factor weighting
// ⭐ SSOT: 가중치 합은 정확히 1.00 (decimal로 검증)
var Weights = map[contracts.Factor]decimal.Decimal{
	contracts.FactorFundamental:  decimal.RequireFromString("0.30"),
	contracts.FactorTechnical:    decimal.RequireFromString("0.25"),
	contracts.FactorSector:       decimal.RequireFromString("0.15"),
	contracts.FactorSentiment:    decimal.RequireFromString("0.10"),
	contracts.FactorPortfolioFit: decimal.RequireFromString("0.20"),
}

// Tier lower bounds (inclusive)
const (
	StrongBuyThreshold = 80
	BuyThreshold       = 65
	NeutralThreshold   = 50
)

// WeightSum returns Σ weights; always exactly 1
func WeightSum() decimal.Decimal {
	sum := decimal.Zero
	for _, w := range Weights {
		sum = sum.Add(w)
	}
	return sum
}

// WeightLabel renders a weight as "30%"
func WeightLabel(f contracts.Factor) string {
	return Weights[f].Shift(2).String() + "%"
}

// Aggregate combines the five factor scores into a QuantScore
// Pure: identical inputs always produce identical output
func Aggregate(scores map[contracts.Factor]int) (contracts.QuantScore, error) {
	total := decimal.Zero
	breakdown := make(map[contracts.Factor]contracts.FactorContribution, len(contracts.Factors))

	for _, f := range contracts.Factors {
		s, ok := scores[f]
		if !ok {
			return contracts.QuantScore{}, fmt.Errorf("aggregate: missing %s score", f)
		}
		s = clamp(s)

		weighted := decimal.NewFromInt(int64(s)).Mul(Weights[f])
		total = total.Add(weighted)
		breakdown[f] = contracts.FactorContribution{
			Score:                s,
			Weight:               WeightLabel(f),
			WeightedContribution: int(weighted.Round(0).IntPart()),
		}
	}

	totalScore := clamp(int(total.Round(0).IntPart()))
	rec, conf := Tier(totalScore)

	return contracts.QuantScore{
		TotalScore:     totalScore,
		Recommendation: rec,
		Confidence:     conf,
		Breakdown:      breakdown,
	}, nil
}

// Tier maps a total score to its recommendation and confidence
func Tier(total int) (contracts.Recommendation, contracts.Confidence) {
	switch {
	case total >= StrongBuyThreshold:
		return contracts.RecommendStrongBuy, contracts.ConfidenceHigh
	case total >= BuyThreshold:
		return contracts.RecommendBuy, contracts.ConfidenceModerate
	case total >= NeutralThreshold:
		return contracts.RecommendNeutral, contracts.ConfidenceLow
	default:
		return contracts.RecommendAvoid, contracts.ConfidenceHigh
	}
}

// Neutral is the substitute result when aggregation fails
func Neutral() contracts.QuantScore {
	breakdown := make(map[contracts.Factor]contracts.FactorContribution, len(contracts.Factors))
	for _, f := range contracts.Factors {
		breakdown[f] = contracts.FactorContribution{Weight: WeightLabel(f)}
	}
	return contracts.QuantScore{
		TotalScore:     NeutralThreshold,
		Recommendation: contracts.RecommendNeutral,
		Confidence:     contracts.ConfidenceLow,
		Breakdown:      breakdown,
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
