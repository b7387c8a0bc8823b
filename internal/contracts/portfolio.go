package contracts

import (
	"sort"
	"strings"
	"time"
)

// HoldingType is the side of a tracked position
type HoldingType string

const (
	HoldingLong  HoldingType = "LONG"
	HoldingShort HoldingType = "SHORT"
)

// HoldingStatus is the lifecycle state of a journal entry
type HoldingStatus string

const (
	StatusLegacy HoldingStatus = "LEGACY" // 구 스키마 {name, pl, date}
	StatusActive HoldingStatus = "ACTIVE"
	StatusClosed HoldingStatus = "CLOSED"
)

// Holding is a normalized journal entry
// ⭐ SSOT: 레거시/신규 스키마는 store 계층에서 이 구조체로 정규화됨
type Holding struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Symbol        string        `json:"symbol"`
	Type          HoldingType   `json:"type,omitempty"`
	Status        HoldingStatus `json:"status"`
	EntryPrice    float64       `json:"entryPrice,omitempty"`
	ExitPrice     float64       `json:"exitPrice,omitempty"`
	Quantity      float64       `json:"quantity,omitempty"`
	Exchange      string        `json:"exchange,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	ProfitAndLoss float64       `json:"pl"`
	Date          time.Time     `json:"date"`
	EntryDate     *time.Time    `json:"entryDate,omitempty"`
	ExitDate      *time.Time    `json:"exitDate,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// IsWin reports whether the holding realized a non-negative P&L
func (h Holding) IsWin() bool {
	return h.ProfitAndLoss >= 0
}

// Portfolio is a user's holdings ordered newest first
type Portfolio []Holding

// SortByRecency orders holdings by date, newest first
func (p Portfolio) SortByRecency() {
	sort.SliceStable(p, func(i, j int) bool {
		return p[i].Date.After(p[j].Date)
	})
}

// Symbols returns the distinct symbols in the portfolio (uppercase)
func (p Portfolio) Symbols() []string {
	seen := make(map[string]struct{}, len(p))
	out := make([]string, 0, len(p))
	for _, h := range p {
		sym := strings.ToUpper(h.Symbol)
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// CountSymbol returns how many holdings reference symbol
func (p Portfolio) CountSymbol(symbol string) int {
	n := 0
	for _, h := range p {
		if strings.EqualFold(h.Symbol, symbol) {
			n++
		}
	}
	return n
}

// PortfolioStats is the compact performance summary attached to evaluations
type PortfolioStats struct {
	TotalTrades   int     `json:"totalTrades"`
	TotalPnL      float64 `json:"totalPnL"`
	WinRate       float64 `json:"winRate"`
	AvgWin        float64 `json:"avgWin"`
	AvgLoss       float64 `json:"avgLoss"`
	ProfitFactor  float64 `json:"profitFactor"`
	LargestWin    float64 `json:"largestWin"`
	LargestLoss   float64 `json:"largestLoss"`
	SharpeProxy   float64 `json:"sharpeProxy"`
	CurrentStreak Streak  `json:"currentStreak"`
}

// Streak is the run of consecutive wins or losses ending at the latest trade
type Streak struct {
	Type  string `json:"type"` // "win", "loss" or "none"
	Count int    `json:"count"`
}
