package factors

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// recentWindow is how many of the newest trades feed the drawdown metric
const recentWindow = 5

// PortfolioFitScorer rates how the trade fits the user's history (20%)
type PortfolioFitScorer struct{}

// NewPortfolioFitScorer creates a portfolio-fit scorer
func NewPortfolioFitScorer() *PortfolioFitScorer {
	return &PortfolioFitScorer{}
}

// Factor returns the factor id
func (s *PortfolioFitScorer) Factor() contracts.Factor {
	return contracts.FactorPortfolioFit
}

// Score expects in.Portfolio ordered newest first
func (s *PortfolioFitScorer) Score(_ context.Context, in Input) (contracts.FactorScore, error) {
	portfolio := in.Portfolio
	if len(portfolio) == 0 {
		// 첫 포지션: 고정 기본값
		return contracts.FactorScore{
			Factor: contracts.FactorPortfolioFit,
			Score:  75,
			Breakdown: map[string]contracts.MetricScore{
				"diversification":   {Score: 90, Note: "First position - good start"},
				"concentration":     {Score: 80, Note: "No concentration risk"},
				"correlationImpact": {Score: 70, Note: "No correlation data"},
				"drawdownImpact":    {Score: 60, Note: "No historical drawdown data"},
			},
			DataAvailable: false,
		}, nil
	}

	symbol := strings.ToUpper(in.Intent.Symbol)
	total := len(portfolio)
	unique := len(portfolio.Symbols())

	// 1. Diversification
	inSymbol := make([]contracts.Holding, 0)
	for _, h := range portfolio {
		if strings.EqualFold(h.Symbol, symbol) {
			inSymbol = append(inSymbol, h)
		}
	}
	isNew := len(inSymbol) == 0

	var diversification int
	var divNote string
	if isNew {
		diversification = min(95, 60+unique*5)
		divNote = "New stock adds diversity"
	} else {
		diversification = max(20, 70-unique*3)
		divNote = "Already in portfolio"
	}

	// 2. Concentration
	ratio := float64(len(inSymbol)) / float64(total)
	concentration := above(ratio, []step{
		{0.5, 15}, {0.3, 30}, {0.2, 50}, {0.1, 65},
	}, 80)

	// 3. Correlation: does this symbol's P&L move with the portfolio's?
	correlation := 60
	corrNote := "Limited data"
	if len(inSymbol) >= 3 {
		symAvg := avgPnL(inSymbol)
		portAvg := avgPnL(portfolio)
		if (symAvg > 0 && portAvg > 0) || (symAvg < 0 && portAvg < 0) {
			correlation = 40
		} else {
			correlation = 75
		}
		corrNote = "Based on historical P&L"
	}

	// 4. Drawdown: losses among the most recent trades
	recent := portfolio
	if len(recent) > recentWindow {
		recent = recent[:recentWindow]
	}
	losses := 0
	for _, h := range recent {
		if h.ProfitAndLoss < 0 {
			losses++
		}
	}
	drawdown := 80
	switch {
	case losses >= 4:
		drawdown = 25
	case losses == 3:
		drawdown = 40
	case losses == 2:
		drawdown = 55
	}

	breakdown := map[string]contracts.MetricScore{
		"diversification":   {Score: diversification, Note: divNote},
		"concentration":     {Value: ratio, Score: concentration, Note: fmt.Sprintf("%d/%d trades in %s", len(inSymbol), total, symbol)},
		"correlationImpact": {Score: correlation, Note: corrNote},
		"drawdownImpact":    {Value: losses, Score: drawdown, Note: fmt.Sprintf("%d/%d recent trades were losses", losses, recentWindow)},
	}

	return contracts.FactorScore{
		Factor:        contracts.FactorPortfolioFit,
		Score:         meanScore(breakdown),
		Breakdown:     breakdown,
		DataAvailable: true,
	}, nil
}

func avgPnL(holdings []contracts.Holding) float64 {
	if len(holdings) == 0 {
		return 0
	}
	sum := 0.0
	for _, h := range holdings {
		sum += h.ProfitAndLoss
	}
	return sum / float64(len(holdings))
}
