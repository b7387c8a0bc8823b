// Package riskprofile loads deployment risk profiles from YAML
package riskprofile

import (
	"time"

	"github.com/wonny/tradelens/backend/pkg/config"
)

// Profile overrides the env-configured risk limits, cache TTLs and inbound limits
// Zero values keep whatever config.Load produced.
type Profile struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Risk      Risk      `yaml:"risk" json:"risk"`
	Cache     Cache     `yaml:"cache" json:"cache"`
	RateLimit RateLimit `yaml:"rate_limit" json:"rate_limit"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID   string `yaml:"profile_id" json:"profile_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// Risk limits in percent
type Risk struct {
	MaxPositionPct     float64 `yaml:"max_position_pct" json:"max_position_pct"`
	MaxSectorPct       float64 `yaml:"max_sector_pct" json:"max_sector_pct"`
	MaxRiskPerTradePct float64 `yaml:"max_risk_per_trade_pct" json:"max_risk_per_trade_pct"`
}

// Cache TTLs ("5m", "30s")
type Cache struct {
	PortfolioTTL time.Duration `yaml:"portfolio_ttl" json:"portfolio_ttl"`
	PriceTTL     time.Duration `yaml:"price_ttl" json:"price_ttl"`
}

// RateLimit inbound limits
type RateLimit struct {
	EvaluatePerMinute int `yaml:"evaluate_per_minute" json:"evaluate_per_minute"`
}

// Apply writes the profile's non-zero values onto cfg
func (p *Profile) Apply(cfg *config.Config) {
	if p.Risk.MaxPositionPct > 0 {
		cfg.Risk.MaxPositionPct = p.Risk.MaxPositionPct
	}
	if p.Risk.MaxSectorPct > 0 {
		cfg.Risk.MaxSectorPct = p.Risk.MaxSectorPct
	}
	if p.Risk.MaxRiskPerTradePct > 0 {
		cfg.Risk.MaxRiskPerTrade = p.Risk.MaxRiskPerTradePct
	}
	if p.Cache.PortfolioTTL > 0 {
		cfg.Cache.PortfolioTTL = p.Cache.PortfolioTTL
	}
	if p.Cache.PriceTTL > 0 {
		cfg.Cache.PriceTTL = p.Cache.PriceTTL
	}
	if p.RateLimit.EvaluatePerMinute > 0 {
		cfg.RateLimit.EvaluatePerMinute = p.RateLimit.EvaluatePerMinute
	}
}
