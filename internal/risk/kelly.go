package risk

import (
	"math"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/mathutil"
)

// maxKellyPct caps the suggestion; full Kelly is far too aggressive
const maxKellyPct = 25

// KellyPercent returns the Kelly fraction in percent, clamped to [0, 25]
// Win rate defaults to 0.5 for an empty history and the win/loss ratio to 1
// when there are no losing trades.
func KellyPercent(portfolio contracts.Portfolio) float64 {
	winRate := 0.5
	var wins, losses int
	var winSum, lossSum float64
	for _, h := range portfolio {
		switch {
		case h.ProfitAndLoss > 0:
			wins++
			winSum += h.ProfitAndLoss
		case h.ProfitAndLoss < 0:
			losses++
			lossSum += h.ProfitAndLoss
		}
	}
	if len(portfolio) > 0 {
		winRate = float64(wins) / float64(len(portfolio))
	}

	avgWin := winSum / math.Max(1, float64(wins))
	avgLoss := math.Abs(lossSum) / math.Max(1, float64(losses))

	ratio := 1.0
	if avgLoss > 0 {
		ratio = avgWin / avgLoss
	}
	if ratio == 0 {
		// 이익 거래 없음
		return 0
	}

	kelly := (winRate - (1-winRate)/ratio) * 100
	return mathutil.Round2(math.Max(0, math.Min(maxKellyPct, kelly)))
}
