// Package mathutil provides decimal-backed rounding for reported figures
package mathutil

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Round rounds v half away from zero to places decimals
// NaN and ±Inf are returned as 0 so they never reach a JSON response
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Round2 is Round(v, 2), the precision of currency and percentages
func Round2(v float64) float64 {
	return Round(v, 2)
}

// FormatNumber renders v with the shortest representation ("20", "20.01")
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
