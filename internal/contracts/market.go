package contracts

// Quote is the latest trading snapshot for a symbol
// Price is always positive; a quote without a usable price is not returned at all
type Quote struct {
	Symbol           string   `json:"symbol"`
	Price            float64  `json:"price"`
	Change           *float64 `json:"change"`
	ChangePercent    *float64 `json:"changePercent"`
	Volume           int64    `json:"volume"`
	LatestTradingDay string   `json:"latestTradingDay,omitempty"`

	Open          *float64 `json:"open,omitempty"`
	High          *float64 `json:"high,omitempty"`
	Low           *float64 `json:"low,omitempty"`
	PreviousClose *float64 `json:"previousClose,omitempty"`
}

// Overview holds company fundamentals and long-horizon technicals
// Every numeric field is optional: nil means "no data", never zero
type Overview struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`

	PERatio           *float64 `json:"peRatio"`
	EPSGrowth         *float64 `json:"epsGrowth"`     // YoY, fraction (0.12 = 12%)
	ROE               *float64 `json:"roe"`           // fraction
	ProfitMargin      *float64 `json:"profitMargin"`  // fraction
	RevenueGrowth     *float64 `json:"revenueGrowth"` // YoY, fraction
	BookValue         *float64 `json:"bookValue"`     // per share
	SharesOutstanding *float64 `json:"sharesOutstanding"`
	MarketCap         *float64 `json:"marketCap"`
	Beta              *float64 `json:"beta"`
	DividendYield     *float64 `json:"dividendYield"` // fraction
	PEGRatio          *float64 `json:"pegRatio"`
	MA50              *float64 `json:"ma50"`
	MA200             *float64 `json:"ma200"`
	High52            *float64 `json:"high52"`
	Low52             *float64 `json:"low52"`

	EPS                *float64 `json:"eps,omitempty"`
	AnalystTargetPrice *float64 `json:"analystTargetPrice,omitempty"`
}

// MarketSnapshot bundles whatever market data could be fetched for one request
type MarketSnapshot struct {
	Quote    *Quote    `json:"quote"`
	Overview *Overview `json:"overview"`
}

// Price returns the quote price, or 0 when no quote is available
func (m MarketSnapshot) Price() float64 {
	if m.Quote == nil {
		return 0
	}
	return m.Quote.Price
}

// SectorName returns the overview sector or "Unknown"
func (m MarketSnapshot) SectorName() string {
	if m.Overview == nil || m.Overview.Sector == "" {
		return "Unknown"
	}
	return m.Overview.Sector
}

// Float returns a pointer to v; handy for building optional metrics
func Float(v float64) *float64 {
	return &v
}
