package factors

import (
	"context"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// FundamentalScorer rates valuation, growth, profitability and leverage (30%)
type FundamentalScorer struct{}

// NewFundamentalScorer creates a fundamental scorer
func NewFundamentalScorer() *FundamentalScorer {
	return &FundamentalScorer{}
}

// Factor returns the factor id
func (s *FundamentalScorer) Factor() contracts.Factor {
	return contracts.FactorFundamental
}

// Score computes the fundamental factor from the company overview
func (s *FundamentalScorer) Score(_ context.Context, in Input) (contracts.FactorScore, error) {
	ov := in.Snapshot.Overview
	if ov == nil {
		return contracts.FactorScore{
			Factor:        contracts.FactorFundamental,
			Score:         NeutralScore,
			Breakdown:     map[string]contracts.MetricScore{},
			DataAvailable: false,
			Note:          "No fundamental data available",
		}, nil
	}

	de := DebtToEquityProxy(ov.BookValue, ov.SharesOutstanding, ov.MarketCap)

	breakdown := map[string]contracts.MetricScore{
		"peRatio":       metric(ov.PERatio, scorePE(ov.PERatio)),
		"epsGrowth":     metric(ov.EPSGrowth, scoreEPSGrowth(ov.EPSGrowth)),
		"roe":           metric(ov.ROE, scoreROE(ov.ROE)),
		"debtEquity":    metric(de, scoreDebtEquity(de)),
		"revenueGrowth": metric(ov.RevenueGrowth, scoreRevenueGrowth(ov.RevenueGrowth)),
	}

	return contracts.FactorScore{
		Factor:        contracts.FactorFundamental,
		Score:         meanScore(breakdown),
		Breakdown:     breakdown,
		DataAvailable: true,
	}, nil
}

// DebtToEquityProxy estimates leverage as (marketCap − equity) / equity
// with equity = bookValue × shares. Nil unless all inputs are present,
// non-zero, and equity is positive.
func DebtToEquityProxy(bookValue, shares, marketCap *float64) *float64 {
	bv, ok1 := value(bookValue)
	sh, ok2 := value(shares)
	mc, ok3 := value(marketCap)
	if !ok1 || !ok2 || !ok3 || bv == 0 || sh == 0 || mc == 0 {
		return nil
	}

	equity := bv * sh
	if equity <= 0 {
		return nil
	}

	de := (mc - equity) / equity
	if de < 0 {
		de = 0
	}
	return &de
}

// scorePE: lower P/E is better; non-positive means loss-making
func scorePE(p *float64) int {
	pe, ok := value(p)
	if !ok {
		return NeutralScore
	}
	if pe <= 0 {
		return 45
	}
	return below(pe, []step{
		{10, 95}, {15, 85}, {20, 75}, {25, 65}, {35, 50}, {50, 35},
	}, 15)
}

func scoreEPSGrowth(p *float64) int {
	g, ok := value(p)
	if !ok {
		return NeutralScore
	}
	return above(g*100, []step{
		{50, 95}, {30, 85}, {20, 75}, {10, 65}, {5, 55}, {0, 45}, {-10, 30},
	}, 15)
}

func scoreROE(p *float64) int {
	roe, ok := value(p)
	if !ok {
		return NeutralScore
	}
	return above(roe*100, []step{
		{25, 95}, {20, 85}, {15, 75}, {10, 60}, {5, 45}, {0, 30},
	}, 15)
}

func scoreDebtEquity(p *float64) int {
	de, ok := value(p)
	if !ok {
		return NeutralScore
	}
	return below(de, []step{
		{0.1, 95}, {0.3, 85}, {0.5, 75}, {0.8, 65}, {1.0, 55}, {1.5, 40}, {2.5, 25},
	}, 10)
}

func scoreRevenueGrowth(p *float64) int {
	g, ok := value(p)
	if !ok {
		return NeutralScore
	}
	return above(g*100, []step{
		{30, 95}, {20, 85}, {15, 75}, {10, 65}, {5, 55}, {0, 45}, {-5, 30},
	}, 15)
}
