package alphavantage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"12.5", contracts.Float(12.5)},
		{" -0.3 ", contracts.Float(-0.3)},
		{"1.2314%", contracts.Float(1.2314)},
		{"None", nil},
		{"-", nil},
		{"N/A", nil},
		{"", nil},
		{"abc", nil},
		{"NaN", nil},
		{"nan", nil},
		{"Inf", nil},
		{"-Infinity", nil},
		{"+Inf%", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.in))
		})
	}
}

func TestGlobalQuote_NonFinitePrice(t *testing.T) {
	for _, price := range []string{"NaN", "Inf", "0", "-1"} {
		t.Run(price, func(t *testing.T) {
			q := globalQuote{Symbol: "aapl", Price: price}
			assert.Nil(t, q.toContract())
		})
	}
}

func TestGlobalQuote_NonFiniteFieldsStayEncodable(t *testing.T) {
	q := globalQuote{Symbol: "aapl", Price: "187.44", Change: "NaN", ChangePercent: "Inf%", Volume: "NaN"}

	got := q.toContract()
	require.NotNil(t, got)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Nil(t, got.Change)
	assert.Nil(t, got.ChangePercent)
	assert.Zero(t, got.Volume)

	_, err := json.Marshal(got)
	assert.NoError(t, err)
}

func TestOverview_NonFiniteMetricsAreMissing(t *testing.T) {
	r := &overviewResponse{Symbol: "AAPL", PERatio: "NaN", Beta: "-Inf", MA50: "180"}

	got := r.toContract()
	require.NotNil(t, got)
	assert.Nil(t, got.PERatio)
	assert.Nil(t, got.Beta)
	assert.Equal(t, contracts.Float(180), got.MA50)

	_, err := json.Marshal(got)
	assert.NoError(t, err)
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{500, "unavailable"},
		{503, "unavailable"},
		{429, "unavailable"},
		{404, "bad_status"},
		{400, "bad_status"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusLabel(tt.code), "status %d", tt.code)
	}
}
