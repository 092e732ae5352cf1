package controllers

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinpulse/backend/coingecko"
)

// upstreamStub fakes CoinGecko and counts how many requests reach it. The
// failing flag switches it to 503 to exercise the stale-serving path.
type upstreamStub struct {
	hits    atomic.Int64
	failing atomic.Bool
	payload string
}

func (u *upstreamStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		if u.failing.Load() {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(u.payload))
	})
}

func marketRouter(t *testing.T, stub *upstreamStub) *gin.Engine {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	r := gin.New()
	mc := NewMarketController(coingecko.NewClientWithBaseURL(srv.URL))
	r.GET("/api/coins", mc.ListCoins)
	r.GET("/api/coins/search", mc.SearchCoins)
	r.GET("/api/coins/details", mc.CoinDetails)
	return r
}

func TestListCoinsCachesUpstream(t *testing.T) {
	stub := &upstreamStub{payload: `[{"id":"bitcoin","current_price":50000}]`}
	r := marketRouter(t, stub)

	// distinct page number keeps this test's cache keys to itself
	path := "/api/coins?per_page=10&page=101"
	for i := 0; i < 3; i++ {
		w := performJSON(t, r, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, stub.payload, w.Body.String())
	}
	assert.Equal(t, int64(1), stub.hits.Load(), "repeat requests must hit the cache, not upstream")
}

func TestSearchRequiresQuery(t *testing.T) {
	stub := &upstreamStub{payload: `{"coins":[]}`}
	r := marketRouter(t, stub)

	w := performJSON(t, r, http.MethodGet, "/api/coins/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), stub.hits.Load())

	w = performJSON(t, r, http.MethodGet, "/api/coins/search?query=doge-test-q1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCoinDetailsRequiresIds(t *testing.T) {
	stub := &upstreamStub{payload: `[]`}
	r := marketRouter(t, stub)

	w := performJSON(t, r, http.MethodGet, "/api/coins/details", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaleServingDuringOutage(t *testing.T) {
	stub := &upstreamStub{payload: `[{"id":"bitcoin","current_price":50000}]`}
	r := marketRouter(t, stub)

	// warm the cache, then take the upstream down
	warm := performJSON(t, r, http.MethodGet, "/api/coins/details?ids=bitcoin-outage-test", nil, "")
	require.Equal(t, http.StatusOK, warm.Code)
	stub.failing.Store(true)

	// fresh copy still cached: served without contacting upstream
	w := performJSON(t, r, http.MethodGet, "/api/coins/details?ids=bitcoin-outage-test", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, stub.payload, w.Body.String())
}

func TestOutageWithoutAnyCopyIsAnError(t *testing.T) {
	stub := &upstreamStub{payload: `[]`}
	stub.failing.Store(true)
	r := marketRouter(t, stub)

	w := performJSON(t, r, http.MethodGet, "/api/coins/details?ids=never-cached-coin", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 50030, decodeEnvelope(t, w).Code)
}
