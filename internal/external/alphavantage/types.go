package alphavantage

import (
	"math"
	"strconv"
	"strings"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// envelopeMeta holds the keys Alpha Vantage uses to signal failures
// "Note" and "Information" both mean the call quota is exhausted
type envelopeMeta struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

type envelope interface {
	meta() envelopeMeta
}

// quoteResponse is the GLOBAL_QUOTE payload
type quoteResponse struct {
	envelopeMeta
	Quote globalQuote `json:"Global Quote"`
}

func (r *quoteResponse) meta() envelopeMeta { return r.envelopeMeta }

type globalQuote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

func (q globalQuote) toContract() *contracts.Quote {
	price := ParseNumber(q.Price)
	if price == nil || *price <= 0 {
		return nil
	}

	var volume int64
	if v := ParseNumber(q.Volume); v != nil {
		volume = int64(*v)
	}

	return &contracts.Quote{
		Symbol:           strings.ToUpper(q.Symbol),
		Price:            *price,
		Change:           ParseNumber(q.Change),
		ChangePercent:    ParseNumber(q.ChangePercent),
		Volume:           volume,
		LatestTradingDay: q.LatestTradingDay,
		Open:             ParseNumber(q.Open),
		High:             ParseNumber(q.High),
		Low:              ParseNumber(q.Low),
		PreviousClose:    ParseNumber(q.PreviousClose),
	}
}

// overviewResponse is the OVERVIEW payload (only the fields we score)
type overviewResponse struct {
	envelopeMeta
	Symbol                     string `json:"Symbol"`
	Name                       string `json:"Name"`
	Exchange                   string `json:"Exchange"`
	Sector                     string `json:"Sector"`
	Industry                   string `json:"Industry"`
	PERatio                    string `json:"PERatio"`
	PEGRatio                   string `json:"PEGRatio"`
	BookValue                  string `json:"BookValue"`
	DividendYield              string `json:"DividendYield"`
	ProfitMargin               string `json:"ProfitMargin"`
	ReturnOnEquityTTM          string `json:"ReturnOnEquityTTM"`
	QuarterlyEarningsGrowthYOY string `json:"QuarterlyEarningsGrowthYOY"`
	QuarterlyRevenueGrowthYOY  string `json:"QuarterlyRevenueGrowthYOY"`
	MarketCapitalization       string `json:"MarketCapitalization"`
	SharesOutstanding          string `json:"SharesOutstanding"`
	Beta                       string `json:"Beta"`
	High52                     string `json:"52WeekHigh"`
	Low52                      string `json:"52WeekLow"`
	MA50                       string `json:"50DayMovingAverage"`
	MA200                      string `json:"200DayMovingAverage"`
	EPS                        string `json:"EPS"`
	AnalystTargetPrice         string `json:"AnalystTargetPrice"`
}

func (r *overviewResponse) meta() envelopeMeta { return r.envelopeMeta }

// toContract returns nil for the empty object sent for unknown symbols
func (r *overviewResponse) toContract() *contracts.Overview {
	if r.Symbol == "" {
		return nil
	}
	return &contracts.Overview{
		Symbol:            strings.ToUpper(r.Symbol),
		Name:              r.Name,
		Exchange:          cleanText(r.Exchange),
		Sector:            cleanText(r.Sector),
		Industry:          cleanText(r.Industry),
		PERatio:           ParseNumber(r.PERatio),
		EPSGrowth:         ParseNumber(r.QuarterlyEarningsGrowthYOY),
		ROE:               ParseNumber(r.ReturnOnEquityTTM),
		ProfitMargin:      ParseNumber(r.ProfitMargin),
		RevenueGrowth:     ParseNumber(r.QuarterlyRevenueGrowthYOY),
		BookValue:         ParseNumber(r.BookValue),
		SharesOutstanding: ParseNumber(r.SharesOutstanding),
		MarketCap:         ParseNumber(r.MarketCapitalization),
		Beta:              ParseNumber(r.Beta),
		DividendYield:     ParseNumber(r.DividendYield),
		PEGRatio:          ParseNumber(r.PEGRatio),
		MA50:              ParseNumber(r.MA50),
		MA200:             ParseNumber(r.MA200),
		High52:            ParseNumber(r.High52),
		Low52:             ParseNumber(r.Low52),

		EPS:                ParseNumber(r.EPS),
		AnalystTargetPrice: ParseNumber(r.AnalystTargetPrice),
	}
}

// ParseNumber converts an Alpha Vantage string field to a number
// "", "None", "-", "N/A", NaN, ±Inf and anything unparsable become nil; a trailing % is dropped
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "None", "-", "N/A":
		return nil
	}
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	switch s {
	case "None", "-", "N/A":
		return ""
	}
	return s
}
