package contracts

// Factor identifies one of the five scoring dimensions
type Factor string

const (
	FactorFundamental  Factor = "fundamental"
	FactorTechnical    Factor = "technical"
	FactorSector       Factor = "sector"
	FactorSentiment    Factor = "sentiment"
	FactorPortfolioFit Factor = "portfolioFit"
)

// Factors lists every factor in reporting order
var Factors = []Factor{
	FactorFundamental,
	FactorTechnical,
	FactorSector,
	FactorSentiment,
	FactorPortfolioFit,
}

// MetricScore is one scored input of a factor
type MetricScore struct {
	Value interface{} `json:"value,omitempty"`
	Score int         `json:"score"`
	Note  string      `json:"note,omitempty"`
}

// FactorScore is the output of a single scorer
// ⭐ 계약: Score는 항상 [0,100]
type FactorScore struct {
	Factor        Factor                 `json:"factor"`
	Score         int                    `json:"score"`
	Breakdown     map[string]MetricScore `json:"breakdown"`
	DataAvailable bool                   `json:"dataAvailable"`
	Note          string                 `json:"note,omitempty"`
	Brief         string                 `json:"brief,omitempty"`
	Source        string                 `json:"source,omitempty"`

	// Sector scorer only
	Sector   string `json:"sectorName,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// Recommendation is the tiered outcome of aggregation
type Recommendation string

const (
	RecommendStrongBuy Recommendation = "STRONG BUY"
	RecommendBuy       Recommendation = "BUY"
	RecommendNeutral   Recommendation = "NEUTRAL"
	RecommendAvoid     Recommendation = "AVOID"
)

// Confidence accompanies a recommendation tier
type Confidence string

const (
	ConfidenceHigh     Confidence = "HIGH"
	ConfidenceModerate Confidence = "MODERATE"
	ConfidenceLow      Confidence = "LOW"
)

// FactorContribution is one row of the aggregate breakdown
type FactorContribution struct {
	Score                int    `json:"score"`
	Weight               string `json:"weight"` // "30%"
	WeightedContribution int    `json:"weightedContribution"`
}

// QuantScore is the aggregated decision
// Derived per request, never persisted
type QuantScore struct {
	TotalScore     int                           `json:"totalScore"`
	Recommendation Recommendation                `json:"recommendation"`
	Confidence     Confidence                    `json:"confidence"`
	Breakdown      map[Factor]FactorContribution `json:"breakdown"`
}
