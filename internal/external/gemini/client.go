package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/config"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/metrics"
)

// ErrUnavailable is returned while the breaker is open
var ErrUnavailable = errors.New("gemini: circuit breaker is open")

// ErrEmptyResponse means the model answered with no text
var ErrEmptyResponse = errors.New("gemini: empty response")

// generateFunc performs one raw model call
type generateFunc func(ctx context.Context, prompt string, opts contracts.GenerateOptions) (string, error)

// Client implements contracts.TextGenerator on the Gemini API
// ⭐ SSOT: LLM 호출은 이 클라이언트에서만
type Client struct {
	model    string
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker
	generate generateFunc
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// New creates a Gemini client
// Without an API key the client is returned unavailable and never dials out.
func New(ctx context.Context, cfg config.GeminiConfig, log *logger.Logger) (*Client, error) {
	c := newClient(cfg, log)
	if cfg.APIKey == "" {
		c.logger.Info("GEMINI_API_KEY not set, AI features disabled")
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}

	c.generate = func(ctx context.Context, prompt string, opts contracts.GenerateOptions) (string, error) {
		reqCfg := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(opts.Temperature),
			MaxOutputTokens: opts.MaxOutputTokens,
		}
		if opts.JSON {
			reqCfg.ResponseMIMEType = "application/json"
		}

		resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), reqCfg)
		if err != nil {
			return "", fmt.Errorf("gemini generate content failed: %w", err)
		}
		return resp.Text(), nil
	}
	return c, nil
}

func newClient(cfg config.GeminiConfig, log *logger.Logger) *Client {
	log = log.WithField("provider", "gemini")

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	c := &Client{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  log,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			c.metrics.BreakerState(name, int(to))
		},
	})
	return c
}

// WithMetrics records call outcomes and breaker transitions on m
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// Available reports whether a provider is configured
func (c *Client) Available() bool {
	return c != nil && c.generate != nil
}

// Generate returns the trimmed model text for prompt
func (c *Client) Generate(ctx context.Context, prompt string, opts contracts.GenerateOptions) (string, error) {
	if !c.Available() {
		return "", contracts.ErrProviderNotConfigured
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		text, err := c.generate(ctx, prompt, opts)
		if err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, ErrEmptyResponse
		}
		return text, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.ProviderCall("gemini", "breaker_open")
		return "", ErrUnavailable
	}
	if err != nil {
		c.logger.WithError(err).Warn("Gemini call failed")
		c.metrics.ProviderCall("gemini", "error")
		return "", err
	}
	c.metrics.ProviderCall("gemini", "ok")

	c.logger.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Gemini call completed")
	return res.(string), nil
}
