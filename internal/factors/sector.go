package factors

import (
	"context"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// SectorScorer rates macro exposure: beta, size, income and PEG (15%)
type SectorScorer struct{}

// NewSectorScorer creates a sector/macro scorer
func NewSectorScorer() *SectorScorer {
	return &SectorScorer{}
}

// Factor returns the factor id
func (s *SectorScorer) Factor() contracts.Factor {
	return contracts.FactorSector
}

// Score computes the sector factor from the overview
func (s *SectorScorer) Score(_ context.Context, in Input) (contracts.FactorScore, error) {
	ov := in.Snapshot.Overview
	if ov == nil {
		return contracts.FactorScore{
			Factor:    contracts.FactorSector,
			Score:     NeutralScore,
			Breakdown: map[string]contracts.MetricScore{},
			Sector:    "Unknown",
			Industry:  "Unknown",
		}, nil
	}

	breakdown := map[string]contracts.MetricScore{
		"beta":          metric(ov.Beta, scoreBeta(ov.Beta)),
		"marketCap":     metric(ov.MarketCap, scoreMarketCap(ov.MarketCap)),
		"dividendYield": metric(ov.DividendYield, scoreDividendYield(ov.DividendYield)),
		"pegRatio":      metric(ov.PEGRatio, scorePEG(ov.PEGRatio)),
	}

	return contracts.FactorScore{
		Factor:        contracts.FactorSector,
		Score:         meanScore(breakdown),
		Breakdown:     breakdown,
		DataAvailable: true,
		Sector:        orUnknown(ov.Sector),
		Industry:      orUnknown(ov.Industry),
	}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// scoreBeta: defensive (low beta) scores higher
func scoreBeta(p *float64) int {
	b, ok := value(p)
	if !ok {
		return NeutralScore
	}
	return below(b, []step{
		{0.5, 70}, {0.8, 65}, {1.0, 60}, {1.2, 55}, {1.5, 45}, {2.0, 35},
	}, 20)
}

// scoreMarketCap: larger companies score higher (thresholds in billions)
func scoreMarketCap(p *float64) int {
	mc, ok := value(p)
	if !ok {
		return NeutralScore
	}
	return above(mc/1e9, []step{
		{200, 85}, {50, 75}, {10, 65}, {2, 50}, {0.3, 35},
	}, 20)
}

// scoreDividendYield: moderate yields score best, zero means no dividend
func scoreDividendYield(p *float64) int {
	dy, ok := value(p)
	if !ok {
		return NeutralScore
	}
	if dy == 0 {
		return 40
	}
	return above(dy*100, []step{
		{6, 50}, {4, 75}, {2.5, 80}, {1, 60},
	}, 45)
}

// scorePEG: below 1 is cheap relative to growth; negative growth is penalized
func scorePEG(p *float64) int {
	peg, ok := value(p)
	if !ok {
		return NeutralScore
	}
	if peg < 0 {
		return 30
	}
	return below(peg, []step{
		{0.5, 95}, {1.0, 80}, {1.5, 65}, {2.0, 50}, {3.0, 35},
	}, 20)
}
