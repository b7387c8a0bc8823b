package factors

import (
	"context"
	"math"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// NeutralScore is assigned to a metric with no usable input
const NeutralScore = 50

// Input is everything a scorer may look at
// Scorers never mutate the portfolio
type Input struct {
	Intent    contracts.TradeIntent
	Snapshot  contracts.MarketSnapshot
	Portfolio contracts.Portfolio
}

// Scorer computes one factor
// ⭐ SSOT: 팩터 스코어러 인터페이스 (에러 → 중립값 매핑은 오케스트레이터에서만)
type Scorer interface {
	Factor() contracts.Factor
	Score(ctx context.Context, in Input) (contracts.FactorScore, error)
}

// All returns the five standard scorers in reporting order
func All(sentiment *SentimentScorer) []Scorer {
	return []Scorer{
		NewFundamentalScorer(),
		NewTechnicalScorer(),
		NewSectorScorer(),
		sentiment,
		NewPortfolioFitScorer(),
	}
}

// ============================================================
// helpers
// ============================================================

// value returns the metric and whether it is usable (non-nil, finite)
func value(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

// clamp bounds a score to [0,100]
func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// roundScore rounds half away from zero and clamps
func roundScore(v float64) int {
	if math.IsNaN(v) {
		return NeutralScore
	}
	return clamp(int(math.Round(v)))
}

// meanScore is the rounded unweighted mean of metric scores
func meanScore(breakdown map[string]contracts.MetricScore) int {
	if len(breakdown) == 0 {
		return NeutralScore
	}
	sum := 0
	for _, m := range breakdown {
		sum += clamp(m.Score)
	}
	return roundScore(float64(sum) / float64(len(breakdown)))
}

// metric builds a breakdown entry, reporting nil for missing values
func metric(p *float64, score int) contracts.MetricScore {
	m := contracts.MetricScore{Score: clamp(score)}
	if v, ok := value(p); ok {
		m.Value = v
	}
	return m
}

// step is one row of a bucket table
type step struct {
	threshold float64
	score     int
}

// above returns the score of the first threshold v exceeds (v > t)
// thresholds are ordered descending; fallback applies when none match
func above(v float64, steps []step, fallback int) int {
	for _, s := range steps {
		if v > s.threshold {
			return s.score
		}
	}
	return fallback
}

// below returns the score of the first threshold v is under (v < t)
// thresholds are ordered ascending
func below(v float64, steps []step, fallback int) int {
	for _, s := range steps {
		if v < s.threshold {
			return s.score
		}
	}
	return fallback
}
