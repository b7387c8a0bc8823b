package portfolio

import (
	"sort"
	"strings"
	"time"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/mathutil"
)

// SymbolBreakdown is the per-symbol slice of the journal
type SymbolBreakdown struct {
	Symbol     string    `json:"symbol"`
	TradeCount int       `json:"tradeCount"`
	TotalPL    float64   `json:"totalPL"`
	WinRate    float64   `json:"winRate"`
	AvgPL      float64   `json:"avgPL"`
	LastTrade  time.Time `json:"lastTrade"`
}

// MonthlyBucket aggregates the trades dated in one calendar month (UTC)
type MonthlyBucket struct {
	Month   string  `json:"month"` // YYYY-MM
	PnL     float64 `json:"pnl"`
	Trades  int     `json:"trades"`
	WinRate float64 `json:"winRate"`
}

// HoldingsBreakdown groups holdings by symbol, best total P&L first
func HoldingsBreakdown(p contracts.Portfolio) []SymbolBreakdown {
	type acc struct {
		count, wins int
		total       float64
		last        time.Time
	}

	groups := make(map[string]*acc)
	for _, h := range p {
		sym := strings.ToUpper(h.Symbol)
		if sym == "" {
			sym = "UNKNOWN"
		}
		g, ok := groups[sym]
		if !ok {
			g = &acc{}
			groups[sym] = g
		}
		g.count++
		g.total += h.ProfitAndLoss
		if h.ProfitAndLoss > 0 {
			g.wins++
		}
		if h.Date.After(g.last) {
			g.last = h.Date
		}
	}

	out := make([]SymbolBreakdown, 0, len(groups))
	for sym, g := range groups {
		out = append(out, SymbolBreakdown{
			Symbol:     sym,
			TradeCount: g.count,
			TotalPL:    mathutil.Round2(g.total),
			WinRate:    mathutil.Round(float64(g.wins)/float64(g.count)*100, 1),
			AvgPL:      mathutil.Round2(g.total / float64(g.count)),
			LastTrade:  g.last,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPL != out[j].TotalPL {
			return out[i].TotalPL > out[j].TotalPL
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// MonthlyPerformance buckets holdings by month, oldest first
func MonthlyPerformance(p contracts.Portfolio) []MonthlyBucket {
	type acc struct {
		pnl          float64
		trades, wins int
	}

	months := make(map[string]*acc)
	for _, h := range p {
		key := h.Date.UTC().Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &acc{}
			months[key] = m
		}
		m.pnl += h.ProfitAndLoss
		m.trades++
		if h.ProfitAndLoss > 0 {
			m.wins++
		}
	}

	out := make([]MonthlyBucket, 0, len(months))
	for month, m := range months {
		out = append(out, MonthlyBucket{
			Month:   month,
			PnL:     mathutil.Round2(m.pnl),
			Trades:  m.trades,
			WinRate: mathutil.Round(float64(m.wins)/float64(m.trades)*100, 1),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
