package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/portfolio"
	"github.com/wonny/tradelens/backend/internal/quant"
)

// recentTradeLimit caps how many trades a journal prompt lists
const recentTradeLimit = 15

const stockPromptTemplate = `You are a senior financial analyst at a leading investment bank writing a professional equity research report. Analyze %[1]s with real market data and provide actionable investment insights.

%[2]s

Based on this market data, provide a comprehensive analysis following this structure:
---
SUMMARY RECOMMENDATION
- Assign a rating: Strong Buy / Buy / Hold / Sell / Strong Sell
- Give a 1-sentence thesis
---
FINANCIAL PERFORMANCE ANALYSIS
- Interpret each metric above (do not just list them)
- Use comparisons, trend insights, or red flag callouts where applicable
---
SECTOR, MACRO & NEWS IMPACT
- Summarize recent developments in the company, its industry, and relevant macro factors
- Reference key competitors and compare at least one metric
---
KEY STRENGTHS & RISKS
- List 3-5 of each, with evidence-based rationale
---
VALUATION OUTLOOK
- Provide a 6-month and 1-year target price
- Mention the valuation method if implied
- Recommend an investment horizon: Short / Medium / Long term
---

**Company:** %[1]s
**Exchange:** %[3]s
**Date:** %[4]s

Write a polished research note as if publishing it to clients. Use the data and write analytically.`

const portfolioPromptTemplate = `You are a senior portfolio analyst at a leading investment firm. Analyze this trading portfolio and provide comprehensive insights.

%s

Provide a comprehensive portfolio analysis following this structure:
---
EXECUTIVE SUMMARY
---
TRADING PATTERN ANALYSIS
- Frequency, timing, biases (overconfidence, loss aversion), position sizing
---
SECTOR & STOCK CONCENTRATION
- Over-concentrated positions and diversification strategies
---
PERFORMANCE METRICS
- Win rate, profit factor, risk management
---
STRATEGIC RECOMMENDATIONS
---
FUTURE OUTLOOK
---

Write this as a professional portfolio analysis report. Be specific, actionable, and data-driven.`

const tradesPromptTemplate = `You are a senior trading analyst. Analyze this trading portfolio and provide comprehensive insights.

%s

Provide analysis in this format:

**EXECUTIVE SUMMARY**
Overall performance assessment and key insights.

**TRADING PATTERNS**
Frequency, timing, and behavioral patterns identified.

**PERFORMANCE ANALYSIS**
Win rate, profit factor, and risk management assessment.

**DIVERSIFICATION**
Stock concentration and sector analysis.

**RECOMMENDATIONS**
3-5 specific actionable improvements.

**VERDICT**
Overall rating: Excellent/Good/Needs Improvement/Poor
Confidence: High/Medium/Low
Key reason for this verdict.`

const emptyPortfolioNote = `**PORTFOLIO ANALYSIS**

No trades found in your portfolio. Start by adding some trades to get personalized portfolio insights and recommendations.

**Next Steps:**
1. Add your first trade using the "Add Trade" button
2. Include both profitable and losing trades for better analysis
3. Add detailed reasons for each trade to improve insights`

const emptyJournalSummary = "No trades found in your portfolio. Start by adding some trades to get personalized analysis."

var emptyJournalSteps = []string{
	"Add your first trade using the Add Trade button",
	"Include both profitable and losing trades for better analysis",
	"Add detailed reasons for each trade to improve insights",
}

func stockPrompt(symbol, exchange string, snap contracts.MarketSnapshot, now time.Time) string {
	return fmt.Sprintf(stockPromptTemplate, symbol, marketDataSection(symbol, snap), exchange, now.Format("2006-01-02"))
}

func portfolioPrompt(stats contracts.PortfolioStats, p contracts.Portfolio) string {
	return fmt.Sprintf(portfolioPromptTemplate, journalSection(stats, p))
}

func tradesPrompt(stats contracts.PortfolioStats, p contracts.Portfolio) string {
	return fmt.Sprintf(tradesPromptTemplate, journalSection(stats, p))
}

// marketDataSection renders whatever the gateway returned; missing values read N/A
func marketDataSection(symbol string, snap contracts.MarketSnapshot) string {
	q, ov := snap.Quote, snap.Overview
	if q == nil && ov == nil {
		return fmt.Sprintf(`**NOTE:** Unable to fetch market data for %s.
The symbol may be incorrect or the data provider limit may have been reached.
Use your general knowledge of %s and state clearly which figures are estimates.`, symbol, symbol)
	}

	var b strings.Builder
	b.WriteString("**MARKET DATA (Alpha Vantage):**\n")
	if ov != nil {
		fmt.Fprintf(&b, "**Company:** %s (%s)\n", orNA(ov.Name), symbol)
		fmt.Fprintf(&b, "**Exchange:** %s\n", orNA(ov.Exchange))
		fmt.Fprintf(&b, "**Sector:** %s\n", orNA(ov.Sector))
		fmt.Fprintf(&b, "**Industry:** %s\n", orNA(ov.Industry))
	}

	if q != nil {
		b.WriteString("\n**Current Price Data:**\n")
		fmt.Fprintf(&b, "- Current Price: %s\n", quant.FormatUSD(q.Price))
		fmt.Fprintf(&b, "- Change: %s (%s%%)\n", num(q.Change), num(q.ChangePercent))
		fmt.Fprintf(&b, "- Previous Close: %s\n", usd(q.PreviousClose))
		fmt.Fprintf(&b, "- Volume: %d\n", q.Volume)
	}

	if ov != nil {
		fmt.Fprintf(&b, "- 52-Week High: %s\n", usd(ov.High52))
		fmt.Fprintf(&b, "- 52-Week Low: %s\n", usd(ov.Low52))

		b.WriteString("\n**Key Financial Metrics:**\n")
		fmt.Fprintf(&b, "- Market Cap: %s\n", usd(ov.MarketCap))
		fmt.Fprintf(&b, "- P/E Ratio: %s\n", num(ov.PERatio))
		fmt.Fprintf(&b, "- PEG Ratio: %s\n", num(ov.PEGRatio))
		fmt.Fprintf(&b, "- EPS (TTM): %s\n", usd(ov.EPS))
		fmt.Fprintf(&b, "- Profit Margin: %s\n", num(ov.ProfitMargin))
		fmt.Fprintf(&b, "- ROE: %s\n", num(ov.ROE))
		fmt.Fprintf(&b, "- Dividend Yield: %s\n", num(ov.DividendYield))
		fmt.Fprintf(&b, "- Book Value: %s\n", usd(ov.BookValue))
		fmt.Fprintf(&b, "- Beta: %s\n", num(ov.Beta))

		b.WriteString("\n**Growth Metrics:**\n")
		fmt.Fprintf(&b, "- Quarterly Earnings Growth YoY: %s\n", num(ov.EPSGrowth))
		fmt.Fprintf(&b, "- Quarterly Revenue Growth YoY: %s\n", num(ov.RevenueGrowth))

		b.WriteString("\n**Analyst Data:**\n")
		fmt.Fprintf(&b, "- Target Price: %s\n", usd(ov.AnalystTargetPrice))

		b.WriteString("\n**Technical Indicators:**\n")
		fmt.Fprintf(&b, "- 50-Day MA: %s\n", usd(ov.MA50))
		fmt.Fprintf(&b, "- 200-Day MA: %s\n", usd(ov.MA200))
	}
	return strings.TrimRight(b.String(), "\n")
}

// journalSection lists metrics, recent trades, per-symbol and monthly totals
func journalSection(stats contracts.PortfolioStats, p contracts.Portfolio) string {
	var b strings.Builder

	b.WriteString("**PORTFOLIO METRICS:**\n")
	writeMetrics(&b, stats)

	b.WriteString("\n**RECENT TRADES:**\n")
	recent := recentFirst(p)
	if len(recent) > recentTradeLimit {
		recent = recent[:recentTradeLimit]
	}
	for _, h := range recent {
		reason := strings.TrimSpace(h.Reason)
		if reason == "" {
			reason = "No reason provided"
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", h.Symbol, quant.FormatUSD(h.ProfitAndLoss), reason)
	}

	b.WriteString("\n**STOCK CONCENTRATION:**\n")
	for _, s := range portfolio.HoldingsBreakdown(p) {
		fmt.Fprintf(&b, "- %s: %d trades, %s total P&L\n", s.Symbol, s.TradeCount, quant.FormatUSD(s.TotalPL))
	}

	b.WriteString("\n**MONTHLY PERFORMANCE:**\n")
	for _, m := range portfolio.MonthlyPerformance(p) {
		fmt.Fprintf(&b, "- %s: %s\n", m.Month, quant.FormatUSD(m.PnL))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeMetrics(b *strings.Builder, stats contracts.PortfolioStats) {
	fmt.Fprintf(b, "- Total Trades: %d\n", stats.TotalTrades)
	fmt.Fprintf(b, "- Total P&L: %s\n", quant.FormatUSD(stats.TotalPnL))
	fmt.Fprintf(b, "- Win Rate: %s%%\n", strconv.FormatFloat(stats.WinRate, 'f', 1, 64))
	fmt.Fprintf(b, "- Average Win: %s\n", quant.FormatUSD(stats.AvgWin))
	fmt.Fprintf(b, "- Average Loss: %s\n", quant.FormatUSD(stats.AvgLoss))
	fmt.Fprintf(b, "- Profit Factor: %s\n", strconv.FormatFloat(stats.ProfitFactor, 'f', 2, 64))
}

// stockFallback is the note served when no AI commentary could be produced
func stockFallback(symbol string, snap contracts.MarketSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s SNAPSHOT**\n\n", symbol)
	b.WriteString("AI commentary is unavailable right now. The figures below come straight from the market data provider.\n\n")
	if snap.Quote == nil && snap.Overview == nil {
		fmt.Fprintf(&b, "No market data could be fetched for %s. Verify the symbol (e.g., AAPL, TSLA, MSFT) and try again in a few minutes.", symbol)
		return b.String()
	}
	b.WriteString(marketDataSection(symbol, snap))
	return b.String()
}

// journalFallback summarizes the journal without AI
func journalFallback(stats contracts.PortfolioStats, p contracts.Portfolio) string {
	var b strings.Builder
	b.WriteString("**PORTFOLIO SUMMARY**\n\n")
	b.WriteString("AI commentary is unavailable right now. Here is how your journal stands.\n\n")
	writeMetrics(&b, stats)

	if bd := portfolio.HoldingsBreakdown(p); len(bd) > 0 {
		best, worst := bd[0], bd[len(bd)-1]
		fmt.Fprintf(&b, "\nBest symbol: %s (%s over %d trades)\n", best.Symbol, quant.FormatUSD(best.TotalPL), best.TradeCount)
		if len(bd) > 1 {
			fmt.Fprintf(&b, "Weakest symbol: %s (%s over %d trades)\n", worst.Symbol, quant.FormatUSD(worst.TotalPL), worst.TradeCount)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func num(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func usd(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return quant.FormatUSD(*v)
}
