package contracts

import "time"

// FactorReport is the per-factor view returned to clients
type FactorReport struct {
	Score                int                    `json:"score"`
	Weight               string                 `json:"weight"`
	WeightedContribution int                    `json:"weightedContribution"`
	Details              map[string]MetricScore `json:"details"`
	DataAvailable        bool                   `json:"dataAvailable"`
	Note                 string                 `json:"note,omitempty"`
	SectorName           string                 `json:"sectorName,omitempty"`
	Industry             string                 `json:"industry,omitempty"`
	Brief                string                 `json:"brief,omitempty"`
	Source               string                 `json:"source,omitempty"`
}

// ScoreReport is QuantScore enriched with factor details
type ScoreReport struct {
	TotalScore     int                     `json:"totalScore"`
	Recommendation Recommendation          `json:"recommendation"`
	Confidence     Confidence              `json:"confidence"`
	Breakdown      map[Factor]FactorReport `json:"breakdown"`
}

// StatsSummary is the slice of PortfolioStats exposed on an evaluation
type StatsSummary struct {
	TotalTrades int     `json:"totalTrades"`
	TotalPnL    float64 `json:"totalPnL"`
	WinRate     float64 `json:"winRate"`
	SharpeProxy float64 `json:"sharpeProxy"`
}

// DataSource records where each input of an evaluation came from
type DataSource struct {
	Quote     bool   `json:"quote"`
	Overview  bool   `json:"overview"`
	Sentiment string `json:"sentiment"` // gemini, default, fallback
	Portfolio bool   `json:"portfolio"`
}

// Evaluation is the full decision returned for one trade intent
// A rate-limited evaluation carries only ParsedIntent
type Evaluation struct {
	ParsedIntent   *TradeIntent    `json:"parsedIntent"`
	QuantScore     *ScoreReport    `json:"quantScore,omitempty"`
	RiskMetrics    *RiskAssessment `json:"riskMetrics,omitempty"`
	PortfolioStats *StatsSummary   `json:"portfolioStats,omitempty"`
	Recommendation Recommendation  `json:"recommendation,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	DataSource     *DataSource     `json:"dataSource,omitempty"`
}
