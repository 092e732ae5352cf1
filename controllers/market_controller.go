package controllers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coinpulse/backend/coingecko"
	"github.com/coinpulse/backend/config"
	"github.com/coinpulse/backend/utils"
)

// MarketController proxies CoinGecko behind a TTL cache so browser polling
// does not burn through the upstream rate limit. Responses are passed through
// as opaque JSON.
type MarketController struct {
	client *coingecko.Client
}

// NewMarketController creates a MarketController.
func NewMarketController(client *coingecko.Client) *MarketController {
	return &MarketController{client: client}
}

func marketCacheTTL() time.Duration {
	return time.Duration(config.Get().MarketCacheTTLSec) * time.Second
}

func cachedMarkets(key string) ([]coingecko.Market, bool) {
	b, ok := utils.CacheGetBytes(key)
	if !ok {
		return nil, false
	}
	var markets []coingecko.Market
	if err := json.Unmarshal(b, &markets); err != nil {
		return nil, false
	}
	return markets, true
}

// serve writes a fresh-cached, newly fetched, or stale-cached payload, in that
// order of preference. Stale serving is the degradation path for upstream
// outages; only when no copy exists at all does the caller see a 500.
func (m *MarketController) serve(ctx *gin.Context, cacheKey string, fetch func() ([]byte, error)) {
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	b, err := fetch()
	if err != nil {
		if stale, ok := utils.CacheGetStaleBytes(cacheKey); ok {
			utils.Sugar.Warnf("market proxy: serving stale copy for %s: %v", cacheKey, err)
			ctx.Data(http.StatusOK, "application/json", stale)
			return
		}
		utils.Sugar.Errorf("market proxy: upstream failed for %s: %v", cacheKey, err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to fetch coin data")
		return
	}

	utils.CacheSetBytes(cacheKey, b, marketCacheTTL())
	ctx.Data(http.StatusOK, "application/json", b)
}

// ListCoins proxies the markets listing with pagination parameters.
func (m *MarketController) ListCoins(ctx *gin.Context) {
	vsCurrency := ctx.DefaultQuery("vs_currency", "usd")
	order := ctx.DefaultQuery("order", "market_cap_desc")
	perPage := ctx.DefaultQuery("per_page", "100")
	page := ctx.DefaultQuery("page", "1")
	sparkline := ctx.DefaultQuery("sparkline", "false")

	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("order", order)
	params.Set("per_page", perPage)
	params.Set("page", page)
	params.Set("sparkline", sparkline)

	cacheKey := strings.Join([]string{"cache:coins", vsCurrency, order, perPage, page, sparkline}, ":")
	m.serve(ctx, cacheKey, func() ([]byte, error) {
		return m.client.MarketsRaw(ctx.Request.Context(), params)
	})
}

// SearchCoins proxies the coin search endpoint.
func (m *MarketController) SearchCoins(ctx *gin.Context) {
	query := strings.TrimSpace(ctx.Query("query"))
	if query == "" {
		utils.Error(ctx, http.StatusBadRequest, 40013, "query parameter is required")
		return
	}

	m.serve(ctx, "cache:search:"+query, func() ([]byte, error) {
		return m.client.SearchRaw(ctx.Request.Context(), query)
	})
}

// CoinDetails proxies market rows for an explicit list of coin ids.
func (m *MarketController) CoinDetails(ctx *gin.Context) {
	ids := strings.TrimSpace(ctx.Query("ids"))
	if ids == "" {
		utils.Error(ctx, http.StatusBadRequest, 40014, "ids parameter is required")
		return
	}
	vsCurrency := ctx.DefaultQuery("vs_currency", "usd")

	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("ids", ids)
	params.Set("order", "market_cap_desc")
	params.Set("sparkline", "false")

	m.serve(ctx, "cache:details:"+ids+":"+vsCurrency, func() ([]byte, error) {
		return m.client.MarketsRaw(ctx.Request.Context(), params)
	})
}
