package contracts

import "strings"

// Action is the direction of a trade intent
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// PriceType distinguishes market orders from priced (limit) orders
type PriceType string

const (
	PriceTypeMarket PriceType = "MARKET"
	PriceTypeLimit  PriceType = "LIMIT"
)

// TradeIntent is the structured form of a free-text order
// ⭐ SSOT: 파싱 이후 변경되지 않음 (immutable)
type TradeIntent struct {
	Action      Action    `json:"action"`
	Symbol      string    `json:"symbol"`
	Quantity    int       `json:"quantity"`
	PriceType   PriceType `json:"priceType"`
	TargetPrice *float64  `json:"targetPrice"`
	RawInput    string    `json:"rawInput"`
	AIParsed    bool      `json:"aiParsed,omitempty"`
}

// IsLimit reports whether the intent carries an explicit price
func (t TradeIntent) IsLimit() bool {
	return t.PriceType == PriceTypeLimit && t.TargetPrice != nil
}

// PriceTypeLabel returns the lowercase price type used in human-readable text
func (t TradeIntent) PriceTypeLabel() string {
	return strings.ToLower(string(t.PriceType))
}
