package riskprofile

import (
	"fmt"
	"time"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks the hard constraints
func Validate(p *Profile) error {
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}

	pcts := []struct {
		field string
		value float64
	}{
		{"risk.max_position_pct", p.Risk.MaxPositionPct},
		{"risk.max_sector_pct", p.Risk.MaxSectorPct},
		{"risk.max_risk_per_trade_pct", p.Risk.MaxRiskPerTradePct},
	}
	for _, pct := range pcts {
		if pct.value < 0 || pct.value > 100 {
			return ValidationError{pct.field, "must be in [0, 100]"}
		}
	}

	if p.Cache.PortfolioTTL < 0 {
		return ValidationError{"cache.portfolio_ttl", "must not be negative"}
	}
	if p.Cache.PriceTTL < 0 {
		return ValidationError{"cache.price_ttl", "must not be negative"}
	}
	if p.RateLimit.EvaluatePerMinute < 0 {
		return ValidationError{"rate_limit.evaluate_per_minute", "must not be negative"}
	}

	return nil
}

// Warnings lists settings that are allowed but unusual
func Warnings(p *Profile) []Warning {
	var out []Warning

	if p.Risk.MaxPositionPct > 0 && p.Risk.MaxSectorPct > 0 && p.Risk.MaxPositionPct > p.Risk.MaxSectorPct {
		out = append(out, Warning{"POSITION_ABOVE_SECTOR", "max_position_pct exceeds max_sector_pct; the sector limit will bind first"})
	}
	if p.Risk.MaxRiskPerTradePct > 5 {
		out = append(out, Warning{"HIGH_RISK_PER_TRADE", "max_risk_per_trade_pct above 5"})
	}
	if p.Cache.PriceTTL > 5*time.Minute {
		out = append(out, Warning{"STALE_PRICES", "price_ttl above 5m makes live positions lag"})
	}
	if p.Cache.PortfolioTTL > time.Hour {
		out = append(out, Warning{"STALE_PORTFOLIO", "portfolio_ttl above 1h"})
	}

	return out
}
