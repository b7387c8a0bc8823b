package factors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// Sentiment defaults
const (
	SentimentNeutral        = 55
	SentimentSourceAI       = "gemini"
	SentimentSourceDefault  = "default"
	SentimentSourceFallback = "fallback"
	SentimentFallbackBrief  = "Sentiment analysis unavailable"
)

const sentimentPromptTemplate = `Rate the current market sentiment for %s (%s) in the %s sector.

Consider: recent news, analyst consensus, earnings momentum, market trends.

Return ONLY a JSON object (no markdown):
{
  "sentimentScore": <number 0-100>,
  "newsPolarity": <number 0-100>,
  "analystSentiment": <number 0-100>,
  "earningsTone": <number 0-100>,
  "brief": "<one sentence summary>"
}

Score guide: 0=very bearish, 50=neutral, 100=very bullish.`

var sentimentJSON = regexp.MustCompile(`(?s)\{.*\}`)

// ErrSentimentResponse means the provider answered with something unusable
var ErrSentimentResponse = errors.New("sentiment response unusable")

// SentimentScorer asks a text generator for a market mood reading (10%)
type SentimentScorer struct {
	gen contracts.TextGenerator
}

// NewSentimentScorer creates a sentiment scorer; gen may be nil
func NewSentimentScorer(gen contracts.TextGenerator) *SentimentScorer {
	return &SentimentScorer{gen: gen}
}

// Factor returns the factor id
func (s *SentimentScorer) Factor() contracts.Factor {
	return contracts.FactorSentiment
}

type sentimentReply struct {
	SentimentScore   json.RawMessage `json:"sentimentScore"`
	NewsPolarity     json.RawMessage `json:"newsPolarity"`
	AnalystSentiment json.RawMessage `json:"analystSentiment"`
	EarningsTone     json.RawMessage `json:"earningsTone"`
	Brief            string          `json:"brief"`
}

// Score returns the neutral default when no provider is configured and an
// error for any provider failure, which the caller maps to the fallback
func (s *SentimentScorer) Score(ctx context.Context, in Input) (contracts.FactorScore, error) {
	if s.gen == nil || !s.gen.Available() {
		return contracts.FactorScore{
			Factor:    contracts.FactorSentiment,
			Score:     SentimentNeutral,
			Breakdown: map[string]contracts.MetricScore{},
			Source:    SentimentSourceDefault,
			Note:      "sentiment provider not configured",
		}, nil
	}

	name, sector := in.Intent.Symbol, "Unknown"
	if ov := in.Snapshot.Overview; ov != nil {
		if ov.Name != "" {
			name = ov.Name
		}
		sector = orUnknown(ov.Sector)
	}

	raw, err := s.gen.Generate(ctx, fmt.Sprintf(sentimentPromptTemplate, name, in.Intent.Symbol, sector), contracts.GenerateOptions{
		Temperature:     0.2,
		MaxOutputTokens: 300,
		JSON:            true,
	})
	if err != nil {
		return contracts.FactorScore{}, fmt.Errorf("sentiment: %w", err)
	}

	obj := sentimentJSON.FindString(raw)
	if obj == "" {
		return contracts.FactorScore{}, fmt.Errorf("%w: no JSON in response", ErrSentimentResponse)
	}

	var reply sentimentReply
	if err := json.Unmarshal([]byte(obj), &reply); err != nil {
		return contracts.FactorScore{}, fmt.Errorf("%w: %v", ErrSentimentResponse, err)
	}

	breakdown := map[string]contracts.MetricScore{
		"newsPolarity":     {Score: subScore(reply.NewsPolarity)},
		"analystSentiment": {Score: subScore(reply.AnalystSentiment)},
		"earningsTone":     {Score: subScore(reply.EarningsTone)},
		"overall":          {Score: subScore(reply.SentimentScore)},
	}

	return contracts.FactorScore{
		Factor:        contracts.FactorSentiment,
		Score:         meanScore(breakdown),
		Breakdown:     breakdown,
		DataAvailable: true,
		Brief:         strings.TrimSpace(reply.Brief),
		Source:        SentimentSourceAI,
	}, nil
}

// subScore parses a 0–100 sub-score; absent or non-numeric → 55
func subScore(raw json.RawMessage) int {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return SentimentNeutral
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return SentimentNeutral
	}
	return roundScore(v)
}
