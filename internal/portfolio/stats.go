package portfolio

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/mathutil"
)

// Streak types
const (
	StreakWin  = "win"
	StreakLoss = "loss"
	StreakNone = "none"
)

// ComputeStats summarizes realized performance over the whole journal
// ⭐ SSOT: 포트폴리오 성과 통계는 여기서만 계산
func ComputeStats(p contracts.Portfolio) contracts.PortfolioStats {
	if len(p) == 0 {
		return contracts.PortfolioStats{CurrentStreak: contracts.Streak{Type: StreakNone}}
	}

	pnls := make([]float64, len(p))
	var total, winSum, lossSum float64
	var wins, losses int
	largestWin, largestLoss := 0.0, 0.0

	for i, h := range p {
		v := h.ProfitAndLoss
		pnls[i] = v
		total += v
		switch {
		case v > 0:
			wins++
			winSum += v
			largestWin = math.Max(largestWin, v)
		case v < 0:
			losses++
			lossSum += v
			largestLoss = math.Min(largestLoss, v)
		}
	}

	var avgWin, avgLoss, profitFactor float64
	if wins > 0 {
		avgWin = mathutil.Round2(winSum / float64(wins))
	}
	if losses > 0 {
		avgLoss = mathutil.Round2(lossSum / float64(losses))
	}
	if avgLoss != 0 {
		profitFactor = mathutil.Round2(math.Abs(avgWin / avgLoss))
	}

	// 모집단 표준편차 기준
	mean, std := stat.PopMeanStdDev(pnls, nil)
	sharpe := 0.0
	if std > 0 {
		sharpe = mathutil.Round(mean/std, 3)
	}

	return contracts.PortfolioStats{
		TotalTrades:   len(p),
		TotalPnL:      mathutil.Round2(total),
		WinRate:       mathutil.Round(float64(wins)/float64(len(p))*100, 1),
		AvgWin:        avgWin,
		AvgLoss:       avgLoss,
		ProfitFactor:  profitFactor,
		LargestWin:    mathutil.Round2(largestWin),
		LargestLoss:   mathutil.Round2(largestLoss),
		SharpeProxy:   sharpe,
		CurrentStreak: CurrentStreak(p),
	}
}

// CurrentStreak counts consecutive same-outcome trades from the most recent
// Break-even trades count as wins here.
func CurrentStreak(p contracts.Portfolio) contracts.Streak {
	if len(p) == 0 {
		return contracts.Streak{Type: StreakNone}
	}

	sorted := make(contracts.Portfolio, len(p))
	copy(sorted, p)
	sorted.SortByRecency()

	first := sorted[0].IsWin()
	streak := contracts.Streak{Type: StreakLoss}
	if first {
		streak.Type = StreakWin
	}
	for _, h := range sorted {
		if h.IsWin() != first {
			break
		}
		streak.Count++
	}
	return streak
}

// Summary is the subset of stats attached to an evaluation
func Summary(s contracts.PortfolioStats) contracts.StatsSummary {
	return contracts.StatsSummary{
		TotalTrades: s.TotalTrades,
		TotalPnL:    s.TotalPnL,
		WinRate:     s.WinRate,
		SharpeProxy: s.SharpeProxy,
	}
}
