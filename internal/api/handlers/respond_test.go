package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/pkg/logger"
)

func requestWithLogger(buf *bytes.Buffer) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/trades/active", nil)
	return r.WithContext(logger.ToContext(r.Context(), logger.NewWithWriter(buf)))
}

func TestRespondJSON_UnencodableBodyBecomes500(t *testing.T) {
	var buf bytes.Buffer
	w := httptest.NewRecorder()

	respondJSON(w, requestWithLogger(&buf), http.StatusOK, map[string]float64{"price": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Error)

	assert.Contains(t, buf.String(), "Failed to encode response")
	assert.Contains(t, buf.String(), "unsupported value")
}

func TestRespondJSON_WritesBody(t *testing.T) {
	var buf bytes.Buffer
	w := httptest.NewRecorder()

	respondJSON(w, requestWithLogger(&buf), http.StatusCreated, map[string]int{"count": 2})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":2}`, w.Body.String())
	assert.Empty(t, buf.String())
}

func TestRespondJSON_WithoutRequestLogger(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	respondJSON(w, r, http.StatusOK, math.Inf(1))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
