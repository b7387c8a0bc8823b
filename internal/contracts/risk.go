package contracts

// ConcentrationRisk buckets the post-trade HHI
type ConcentrationRisk string

const (
	ConcentrationLow      ConcentrationRisk = "LOW"
	ConcentrationModerate ConcentrationRisk = "MODERATE"
	ConcentrationHigh     ConcentrationRisk = "HIGH"
	ConcentrationUnknown  ConcentrationRisk = "UNKNOWN"
)

// RiskLimits are the configurable guard rails checked by the risk engine
type RiskLimits struct {
	MaxPositionPct  float64 `json:"maxPositionPct"`  // 기본 20
	MaxSectorPct    float64 `json:"maxSectorPct"`    // 기본 40
	MaxRiskPerTrade float64 `json:"maxRiskPerTrade"` // 기본 2
}

// DefaultRiskLimits returns the standard limits (20 / 40 / 2)
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPositionPct:  20,
		MaxSectorPct:    40,
		MaxRiskPerTrade: 2,
	}
}

// RiskAssessment is the output of the risk engine
type RiskAssessment struct {
	TradeValue           float64            `json:"tradeValue"`
	CurrentPrice         float64            `json:"currentPrice"`
	PortfolioValue       float64            `json:"portfolioValue"`
	PositionSizePercent  float64            `json:"positionSizePercent"`
	SectorExposureBefore map[string]float64 `json:"sectorExposureBefore"`
	SectorExposureAfter  map[string]float64 `json:"sectorExposureAfter"`
	ConcentrationRisk    ConcentrationRisk  `json:"concentrationRisk"`
	HHIBefore            int                `json:"hhiBefore"`
	HHIAfter             int                `json:"hhiAfter"`
	BetaStock            float64            `json:"betaStock"`
	BetaPortfolioAfter   float64            `json:"betaPortfolioAfter"`
	RiskPerTradePct      float64            `json:"riskPerTradePct"`
	KellyOptimalPct      float64            `json:"kellyOptimalPct"`
	Violations           []string           `json:"violations"`
	RiskViolation        bool               `json:"riskViolation"`
	MaxPositionPct       float64            `json:"maxPositionPct"`
	MaxRiskPerTrade      float64            `json:"maxRiskPerTrade"`
	Error                string             `json:"error,omitempty"`
}

// UnknownRisk is the zeroed assessment used when the engine cannot run
func UnknownRisk(reason string, limits RiskLimits) RiskAssessment {
	return RiskAssessment{
		SectorExposureBefore: map[string]float64{},
		SectorExposureAfter:  map[string]float64{},
		ConcentrationRisk:    ConcentrationUnknown,
		Violations:           []string{},
		MaxPositionPct:       limits.MaxPositionPct,
		MaxRiskPerTrade:      limits.MaxRiskPerTrade,
		Error:                reason,
	}
}
