package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coinpulse/backend/config"
	"github.com/coinpulse/backend/utils"
)

// Client talks to the CoinGecko REST API. Responses are returned as raw bytes
// so proxy endpoints pass the upstream contract through untouched.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client from the loaded application config.
func NewClient() *Client {
	return NewClientWithBaseURL(config.Get().CoinGeckoBaseURL)
}

// NewClientWithBaseURL builds a client against an explicit base URL.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	utils.CountUpstreamHit()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("coingecko error: status %d endpoint %s", resp.StatusCode, endpoint)
		}
		return nil, fmt.Errorf("coingecko api error: status %d", resp.StatusCode)
	}

	return body, nil
}

// MarketsRaw fetches /coins/markets with the given query parameters.
func (c *Client) MarketsRaw(ctx context.Context, params url.Values) ([]byte, error) {
	return c.get(ctx, "/coins/markets", params)
}

// SearchRaw fetches /search for the given query string.
func (c *Client) SearchRaw(ctx context.Context, query string) ([]byte, error) {
	params := url.Values{}
	params.Set("query", query)
	return c.get(ctx, "/search", params)
}

// MarketsByIDs fetches and decodes market rows for specific coin ids, used to
// enrich voting history.
func (c *Client) MarketsByIDs(ctx context.Context, vsCurrency string, ids []string) ([]Market, error) {
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("ids", strings.Join(ids, ","))
	params.Set("order", "market_cap_desc")
	params.Set("sparkline", "false")

	body, err := c.MarketsRaw(ctx, params)
	if err != nil {
		return nil, err
	}

	var markets []Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("unmarshal markets: %w", err)
	}
	return markets, nil
}
