package risk

import (
	"math"
	"strings"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/mathutil"
)

// HHI thresholds (post-trade)
const (
	hhiHigh     = 2500
	hhiModerate = 1500
)

// Allocation groups holdings by symbol and weights each by its cumulative
// absolute P&L, in percent (2 dp)
// ⭐ 섹터 분류 데이터가 없으므로 종목을 섹터 대용으로 사용
func Allocation(portfolio contracts.Portfolio) map[string]float64 {
	bySymbol := make(map[string]float64)
	for _, h := range portfolio {
		bySymbol[strings.ToUpper(h.Symbol)] += math.Abs(h.ProfitAndLoss)
	}

	total := 0.0
	for _, v := range bySymbol {
		total += v
	}
	if total == 0 {
		total = 1
	}

	out := make(map[string]float64, len(bySymbol))
	for sym, v := range bySymbol {
		out[sym] = mathutil.Round2(v / total * 100)
	}
	return out
}

// AllocationAfter adds addedPct to symbol and renormalizes to 100
func AllocationAfter(before map[string]float64, symbol string, addedPct float64) map[string]float64 {
	after := make(map[string]float64, len(before)+1)
	for k, v := range before {
		after[k] = v
	}
	after[symbol] = mathutil.Round2(after[symbol] + addedPct)

	total := 0.0
	for _, v := range after {
		total += v
	}
	if total > 0 && total != 100 {
		for k, v := range after {
			after[k] = mathutil.Round2(v / total * 100)
		}
	}
	return after
}

// HHI is the Herfindahl-Hirschman index: Σ w² over percentage weights
// 0 for an empty allocation, 10000 for a single holding
func HHI(allocation map[string]float64) float64 {
	sum := 0.0
	for _, w := range allocation {
		sum += w * w
	}
	return sum
}

// ClassifyHHI maps an HHI to a concentration rating
func ClassifyHHI(hhi float64) contracts.ConcentrationRisk {
	switch {
	case hhi > hhiHigh:
		return contracts.ConcentrationHigh
	case hhi > hhiModerate:
		return contracts.ConcentrationModerate
	default:
		return contracts.ConcentrationLow
	}
}
