// Package market proxies the public CoinGecko API. Every upstream failure is
// absorbed locally with static fallback data; callers never see an error.
package market

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/coindeck/coindeck/internal/config"
	"github.com/coindeck/coindeck/internal/models"
)

// Client fetches market data from the upstream provider
type Client struct {
	http *resty.Client
	log  *zap.SugaredLogger
}

// NewClient creates a market data client for the configured provider
func NewClient(cfg config.MarketConfig, log *zap.SugaredLogger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &Client{http: httpClient, log: log}
}

// Snapshot returns the top assets by market cap. On any upstream failure
// (transport error, non-2xx, malformed body) it returns the static fallback
// snapshot instead; the returned slice is always non-empty.
func (c *Client) Snapshot(ctx context.Context) []models.Coin {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": "usd",
			"order":       "market_cap_desc",
			"per_page":    "20",
			"page":        "1",
			"sparkline":   "false",
		}).
		Get("/coins/markets")

	if err != nil {
		c.log.Warnw("market snapshot request failed, serving fallback", "err", err)
		return FallbackSnapshot()
	}
	if resp.IsError() {
		c.log.Warnw("market snapshot upstream error, serving fallback", "status", resp.StatusCode())
		return FallbackSnapshot()
	}

	var coins []models.Coin
	if err := json.Unmarshal(resp.Body(), &coins); err != nil {
		c.log.Warnw("market snapshot body malformed, serving fallback", "err", err)
		return FallbackSnapshot()
	}
	if len(coins) == 0 {
		return FallbackSnapshot()
	}
	return coins
}

// History returns a 30-day daily price series for one asset, oldest first.
// On any upstream failure it returns a synthesized series anchored to the
// asset's base price.
func (c *Client) History(ctx context.Context, id string) *models.PriceHistory {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": "usd",
			"days":        "30",
			"interval":    "daily",
		}).
		Get(fmt.Sprintf("/coins/%s/market_chart", id))

	if err != nil {
		c.log.Warnw("history request failed, serving fallback", "id", id, "err", err)
		return FallbackHistory(id)
	}
	if resp.IsError() {
		c.log.Warnw("history upstream error, serving fallback", "id", id, "status", resp.StatusCode())
		return FallbackHistory(id)
	}

	var history models.PriceHistory
	if err := json.Unmarshal(resp.Body(), &history); err != nil {
		c.log.Warnw("history body malformed, serving fallback", "id", id, "err", err)
		return FallbackHistory(id)
	}
	if len(history.Prices) == 0 {
		return FallbackHistory(id)
	}
	return &history
}
