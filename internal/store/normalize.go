package store

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// Document is a raw journal entry as read from any backend
// Keys follow the document schema: legacy {name, pl, date, reason}
// and current {symbol, type, status, entryPrice, quantity, realizedPnL, entryDate, exitDate}.
type Document map[string]interface{}

// NormalizeDocument maps either schema onto a Holding
// ⭐ SSOT: 레거시/신규 스키마 정규화는 여기서만
//   - symbol: symbol, then name, then "UNKNOWN" (uppercased)
//   - P&L: pl, then realizedPnL, then 0
//   - date: date, then exitDate, then entryDate, then now
func NormalizeDocument(doc Document, now time.Time) contracts.Holding {
	h := contracts.Holding{
		ID:         idString(doc["_id"]),
		UserID:     str(doc, "userId"),
		Type:       contracts.HoldingType(strings.ToUpper(str(doc, "type"))),
		Exchange:   str(doc, "exchange"),
		Reason:     str(doc, "reason"),
		EntryPrice: numOr(doc, 0, "entryPrice"),
		ExitPrice:  numOr(doc, 0, "exitPrice"),
		Quantity:   numOr(doc, 0, "quantity"),
	}

	h.Symbol = strings.ToUpper(strings.TrimSpace(firstString(doc, "symbol", "name")))
	if h.Symbol == "" {
		h.Symbol = "UNKNOWN"
	}

	switch contracts.HoldingStatus(strings.ToUpper(str(doc, "status"))) {
	case contracts.StatusActive:
		h.Status = contracts.StatusActive
	case contracts.StatusClosed:
		h.Status = contracts.StatusClosed
	default:
		h.Status = contracts.StatusLegacy
	}

	h.ProfitAndLoss = numOr(doc, 0, "pl", "realizedPnL")

	if t, ok := timeOf(doc, "entryDate"); ok {
		h.EntryDate = &t
	}
	if t, ok := timeOf(doc, "exitDate"); ok {
		h.ExitDate = &t
	}
	h.Date = now
	for _, key := range []string{"date", "exitDate", "entryDate"} {
		if t, ok := timeOf(doc, key); ok {
			h.Date = t
			break
		}
	}
	if t, ok := timeOf(doc, "createdAt"); ok {
		h.CreatedAt = t
	} else {
		h.CreatedAt = h.Date
	}

	return h
}

// NormalizeAll normalizes docs and orders them newest first
func NormalizeAll(docs []Document, now time.Time) contracts.Portfolio {
	out := make(contracts.Portfolio, 0, len(docs))
	for _, d := range docs {
		out = append(out, NormalizeDocument(d, now))
	}
	out.SortByRecency()
	return out
}

func str(doc Document, key string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return ""
}

func firstString(doc Document, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(str(doc, k)); s != "" {
			return s
		}
	}
	return ""
}

// numOr returns the first numeric value among keys, or def
// Numeric strings count; nil, NaN and empty values are skipped.
func numOr(doc Document, def float64, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := num(doc[k]); ok {
			return v
		}
	}
	return def
}

func num(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	}
	return 0, false
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func timeOf(doc Document, key string) (time.Time, bool) {
	switch t := doc[key].(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case primitive.DateTime:
		return t.Time().UTC(), true
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	}
	return ""
}
