package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/config"
	"github.com/wonny/tradelens/backend/pkg/httputil"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/metrics"
	"github.com/wonny/tradelens/backend/pkg/redis"
)

const (
	providerName  = "alphavantage"
	fnGlobalQuote = "GLOBAL_QUOTE"
	fnOverview    = "OVERVIEW"
)

// Client reads quotes and company overviews from Alpha Vantage
// ⭐ SSOT: Alpha Vantage 호출은 이 클라이언트에서만
type Client struct {
	http    *httputil.Client
	cache   *redis.Cache
	metrics *metrics.Metrics
	logger  *logger.Logger
	apiKey  string
	baseURL string
}

// NewClient creates a new Alpha Vantage client
// cache may be nil; when set, overviews are cached for redis.TTLOverview
func NewClient(cfg config.AlphaVantageConfig, http *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		http:    http,
		cache:   cache,
		logger:  log.WithField("provider", providerName),
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// WithMetrics records provider call outcomes on m
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// Available reports whether an API key is configured
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// GetQuote fetches GLOBAL_QUOTE for symbol
// Returns (nil, nil) when the symbol is unknown or the quote has no price.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	var resp quoteResponse
	found, err := c.call(ctx, fnGlobalQuote, symbol, &resp)
	if err != nil || !found {
		return nil, err
	}
	return resp.Quote.toContract(), nil
}

// GetOverview fetches the company OVERVIEW for symbol
// Returns (nil, nil) when Alpha Vantage has no overview for the symbol.
func (c *Client) GetOverview(ctx context.Context, symbol string) (*contracts.Overview, error) {
	symbol = strings.ToUpper(symbol)

	if c.cache != nil {
		var cached contracts.Overview
		if ok, err := c.cache.Get(ctx, redis.OverviewKey(symbol), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	var resp overviewResponse
	found, err := c.call(ctx, fnOverview, symbol, &resp)
	if err != nil || !found {
		return nil, err
	}

	ov := resp.toContract()
	if ov == nil {
		return nil, nil
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, redis.OverviewKey(symbol), ov, redis.TTLOverview); err != nil {
			c.logger.WithError(err).Warn("Failed to cache overview")
		}
	}
	return ov, nil
}

// call performs one API request and classifies the envelope
// found=false with a nil error means "no data" (unknown symbol, bad status)
func (c *Client) call(ctx context.Context, function, symbol string, dest envelope) (bool, error) {
	if !c.Available() {
		return false, contracts.ErrProviderNotConfigured
	}

	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("apikey", c.apiKey)

	log := c.logger.WithFields(map[string]interface{}{
		"function": function,
		"symbol":   symbol,
	})

	err := c.http.GetJSON(ctx, c.baseURL+"?"+q.Encode(), dest)
	if errors.Is(err, httputil.ErrThrottled) {
		log.Warn("Alpha Vantage client-side limit reached")
		c.metrics.ProviderCall(providerName, "throttled")
		return false, fmt.Errorf("%s %s: %w", function, symbol, contracts.ErrRateLimited)
	}
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) {
		log.WithField("status", statusErr.StatusCode).Warn("Alpha Vantage returned non-2xx status")
		c.metrics.ProviderCall(providerName, statusLabel(statusErr.StatusCode))
		return false, nil
	}
	if err != nil {
		c.metrics.ProviderCall(providerName, "error")
		return false, fmt.Errorf("%s %s: %w", function, symbol, err)
	}

	meta := dest.meta()
	switch {
	case meta.Note != "" || meta.Information != "":
		log.Warn("Alpha Vantage rate limit hit")
		c.metrics.ProviderCall(providerName, "rate_limited")
		return false, fmt.Errorf("%s %s: %w", function, symbol, contracts.ErrRateLimited)
	case meta.ErrorMessage != "":
		log.WithField("error", meta.ErrorMessage).Warn("Alpha Vantage error")
		c.metrics.ProviderCall(providerName, "not_found")
		return false, nil
	}
	c.metrics.ProviderCall(providerName, "ok")
	return true, nil
}

// statusLabel separates transient upstream failures from permanent ones in provider metrics
func statusLabel(code int) string {
	if httputil.IsRetryableStatus(code) {
		return "unavailable"
	}
	return "bad_status"
}
