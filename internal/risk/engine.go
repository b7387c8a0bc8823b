package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/mathutil"
)

// =============================================================================
// Risk Engine - 순수 계산기
// =============================================================================

const (
	// MinPortfolioValue is the estimate used for new or tiny portfolios
	MinPortfolioValue = 10000

	// pnlToValueMultiplier turns Σ|P&L| into a rough portfolio value
	pnlToValueMultiplier = 5

	// stopLossDistance is the assumed stop for per-trade risk (2%)
	stopLossDistance = 0.02

	// marketBeta is the assumed beta of the existing portfolio
	marketBeta = 1.0
)

var (
	ErrInvalidLimits = errors.New("invalid risk limits")
	ErrInvalidIntent = errors.New("invalid trade intent")
)

// Engine assesses a proposed trade against the portfolio
// ⭐ SSOT: 데이터 수집은 상위 레이어(brain)에서, 여기서는 순수 계산만
type Engine struct {
	limits contracts.RiskLimits
}

// NewEngine creates a risk engine with the given limits
func NewEngine(limits contracts.RiskLimits) *Engine {
	return &Engine{limits: limits}
}

// Limits returns the configured limits
func (e *Engine) Limits() contracts.RiskLimits {
	return e.limits
}

// EstimatePortfolioValue approximates portfolio value from realized P&L
// max(10,000, 5 × Σ|P&L|)
func EstimatePortfolioValue(portfolio contracts.Portfolio) float64 {
	if len(portfolio) == 0 {
		return MinPortfolioValue
	}
	total := 0.0
	for _, h := range portfolio {
		total += math.Abs(h.ProfitAndLoss)
	}
	return math.Max(total*pnlToValueMultiplier, MinPortfolioValue)
}

// Assess computes position size, concentration, beta impact, rule
// violations and Kelly sizing for the intent
// All violations are evaluated; none short-circuits the others.
func (e *Engine) Assess(intent contracts.TradeIntent, portfolio contracts.Portfolio, snapshot contracts.MarketSnapshot) (contracts.RiskAssessment, error) {
	if err := validateLimits(e.limits); err != nil {
		return contracts.RiskAssessment{}, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(intent.Symbol))
	if symbol == "" {
		return contracts.RiskAssessment{}, fmt.Errorf("%w: empty symbol", ErrInvalidIntent)
	}
	quantity := intent.Quantity
	if quantity < 1 {
		quantity = 1
	}

	price := snapshot.Price()
	tradeValue := price * float64(quantity)
	portfolioValue := EstimatePortfolioValue(portfolio)
	newPortfolioValue := portfolioValue + tradeValue

	// 1. Position size
	positionPct := mathutil.Round2(tradeValue / portfolioValue * 100)

	// 2-3. Allocation before / after
	before := Allocation(portfolio)
	addedPct := tradeValue / newPortfolioValue * 100
	after := AllocationAfter(before, symbol, addedPct)

	// 4. Concentration
	hhiBefore := HHI(before)
	hhiAfter := HHI(after)

	// 5. Beta impact
	stockBeta := marketBeta
	if ov := snapshot.Overview; ov != nil && ov.Beta != nil && *ov.Beta != 0 &&
		!math.IsNaN(*ov.Beta) && !math.IsInf(*ov.Beta, 0) {
		stockBeta = *ov.Beta
	}
	weightNew := tradeValue / newPortfolioValue
	betaAfter := mathutil.Round(marketBeta*(1-weightNew)+stockBeta*weightNew, 3)

	// 6. Violations
	violations := make([]string, 0, 3)
	if positionPct > e.limits.MaxPositionPct {
		violations = append(violations, fmt.Sprintf("Position size (%s%%) exceeds max %s%%",
			mathutil.FormatNumber(positionPct), mathutil.FormatNumber(e.limits.MaxPositionPct)))
	}
	if after[symbol] > e.limits.MaxSectorPct {
		violations = append(violations, fmt.Sprintf("%s allocation (%s%%) exceeds max %s%%",
			symbol, mathutil.FormatNumber(after[symbol]), mathutil.FormatNumber(e.limits.MaxSectorPct)))
	}

	riskPct := mathutil.Round2(price * stopLossDistance * float64(quantity) / portfolioValue * 100)
	if riskPct > e.limits.MaxRiskPerTrade {
		violations = append(violations, fmt.Sprintf("Trade risk (%s%%) exceeds max %s%% per trade",
			mathutil.FormatNumber(riskPct), mathutil.FormatNumber(e.limits.MaxRiskPerTrade)))
	}

	return contracts.RiskAssessment{
		TradeValue:           mathutil.Round2(tradeValue),
		CurrentPrice:         price,
		PortfolioValue:       mathutil.Round2(portfolioValue),
		PositionSizePercent:  positionPct,
		SectorExposureBefore: before,
		SectorExposureAfter:  after,
		ConcentrationRisk:    ClassifyHHI(hhiAfter),
		HHIBefore:            int(math.Round(hhiBefore)),
		HHIAfter:             int(math.Round(hhiAfter)),
		BetaStock:            stockBeta,
		BetaPortfolioAfter:   betaAfter,
		RiskPerTradePct:      riskPct,
		KellyOptimalPct:      KellyPercent(portfolio),
		Violations:           violations,
		RiskViolation:        len(violations) > 0,
		MaxPositionPct:       e.limits.MaxPositionPct,
		MaxRiskPerTrade:      e.limits.MaxRiskPerTrade,
	}, nil
}

func validateLimits(l contracts.RiskLimits) error {
	if l.MaxPositionPct <= 0 || l.MaxSectorPct <= 0 || l.MaxRiskPerTrade <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidLimits, l)
	}
	return nil
}
