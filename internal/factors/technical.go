package factors

import (
	"context"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// TechnicalScorer rates trend, momentum and range position (25%)
type TechnicalScorer struct{}

// NewTechnicalScorer creates a technical scorer
func NewTechnicalScorer() *TechnicalScorer {
	return &TechnicalScorer{}
}

// Factor returns the factor id
func (s *TechnicalScorer) Factor() contracts.Factor {
	return contracts.FactorTechnical
}

// Score combines the quote with the overview's moving averages and 52w range
// Each metric degrades to 50 on its own when an input is missing
func (s *TechnicalScorer) Score(_ context.Context, in Input) (contracts.FactorScore, error) {
	var price, changePct *float64
	if q := in.Snapshot.Quote; q != nil {
		if q.Price > 0 {
			price = contracts.Float(q.Price)
		}
		changePct = q.ChangePercent
	}

	var ma50, ma200, high52, low52 *float64
	if ov := in.Snapshot.Overview; ov != nil {
		ma50, ma200, high52, low52 = ov.MA50, ov.MA200, ov.High52, ov.Low52
	}

	breakdown := map[string]contracts.MetricScore{
		"priceVsMA50": {
			Value: pointValues("price", price, "ma50", ma50),
			Score: scorePriceVsMA(price, ma50),
		},
		"priceVsMA200": {
			Value: pointValues("price", price, "ma200", ma200),
			Score: scorePriceVsMA(price, ma200),
		},
		"maAlignment": {
			Value: pointValues("ma50", ma50, "ma200", ma200),
			Score: scoreMAAlignment(ma50, ma200),
		},
		"weekPosition": {
			Value: pointValues("price", price, "high52", high52, "low52", low52),
			Score: score52WeekPosition(price, high52, low52),
		},
		"momentum": metric(changePct, scoreChangePercent(changePct)),
	}

	return contracts.FactorScore{
		Factor:        contracts.FactorTechnical,
		Score:         meanScore(breakdown),
		Breakdown:     breakdown,
		DataAvailable: price != nil || in.Snapshot.Overview != nil,
	}, nil
}

// pointValues builds {name: value} with nil for missing inputs
func pointValues(kv ...interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		name := kv[i].(string)
		if v, ok := value(kv[i+1].(*float64)); ok {
			out[name] = v
		} else {
			out[name] = nil
		}
	}
	return out
}

// scorePriceVsMA: modestly above the average is best, far above is overbought
func scorePriceVsMA(price, ma *float64) int {
	p, ok1 := value(price)
	m, ok2 := value(ma)
	if !ok1 || !ok2 || m == 0 {
		return NeutralScore
	}
	return above((p-m)/m, []step{
		{0.20, 40}, {0.10, 55}, {0.03, 80}, {-0.03, 60}, {-0.10, 35}, {-0.20, 20},
	}, 10)
}

// scoreMAAlignment: golden cross (50d over 200d) is bullish
func scoreMAAlignment(ma50, ma200 *float64) int {
	short, ok1 := value(ma50)
	long, ok2 := value(ma200)
	if !ok1 || !ok2 || long == 0 {
		return NeutralScore
	}
	return above((short-long)/long, []step{
		{0.10, 90}, {0.03, 75}, {-0.03, 50}, {-0.10, 30},
	}, 15)
}

// score52WeekPosition: 0 at the 52w low, 1 at the high
func score52WeekPosition(price, high, low *float64) int {
	p, ok1 := value(price)
	h, ok2 := value(high)
	l, ok3 := value(low)
	if !ok1 || !ok2 || !ok3 || h == l {
		return NeutralScore
	}
	return above((p-l)/(h-l), []step{
		{0.90, 55}, {0.70, 80}, {0.50, 70}, {0.30, 45}, {0.10, 25},
	}, 15)
}

// scoreChangePercent: a mild pullback or mild gain beats a big move either way
func scoreChangePercent(p *float64) int {
	c, ok := value(p)
	if !ok {
		return NeutralScore
	}
	return above(c, []step{
		{3, 45}, {1, 65}, {0, 60}, {-1, 50}, {-3, 55},
	}, 40)
}
