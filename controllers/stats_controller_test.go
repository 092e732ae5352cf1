package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coinpulse/backend/middleware"
	"github.com/coinpulse/backend/models"
	"github.com/coinpulse/backend/utils"
)

func statsRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	sc := NewStatsController(db)
	r.GET("/api/admin/stats", middleware.AuthRequired(), middleware.AdminRequired(), sc.GetStats)
	return r
}

type statsPayload struct {
	APIHitsToday   int64    `json:"api_hits_today"`
	TotalUsers     int64    `json:"total_users"`
	TotalVotes     int64    `json:"total_votes"`
	TopCoinAllTime *topCoin `json:"top_coin_all_time"`
	TopCoin24h     *topCoin `json:"top_coin_24h"`
}

func TestGetStats(t *testing.T) {
	db := setupTestDB(t)
	r := statsRouter(db)
	admin := createTestUser(t, db, testAdminEmail)
	voter := createTestUser(t, db, "voter@example.com")
	loc := utils.ResetLocation()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, loc)
	pinClock(t, now)

	// ethereum leads all-time, bitcoin leads the last 24h
	seed := []struct {
		coin string
		at   time.Time
	}{
		{"Ethereum", now.Add(-72 * time.Hour)},
		{"Ethereum", now.Add(-48 * time.Hour)},
		{"Ethereum", now.Add(-30 * time.Hour)},
		{"Bitcoin", now.Add(-2 * time.Hour)},
	}
	for _, sv := range seed {
		vote := models.Vote{
			UserID:    voter.ID,
			CoinID:    sv.coin,
			CoinName:  sv.coin,
			VoteDay:   utils.DayOf(sv.at),
			CreatedAt: sv.at.UTC(),
		}
		require.NoError(t, db.Create(&vote).Error)
	}

	utils.ResetUpstreamHits()
	utils.CountUpstreamHit()
	utils.CountUpstreamHit()

	w := performJSON(t, r, http.MethodGet, "/api/admin/stats", nil, tokenFor(t, admin))
	require.Equal(t, http.StatusOK, w.Code)
	var stats statsPayload
	decodeData(t, decodeEnvelope(t, w), &stats)

	assert.Equal(t, int64(2), stats.APIHitsToday)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(4), stats.TotalVotes)
	require.NotNil(t, stats.TopCoinAllTime)
	assert.Equal(t, "Ethereum", stats.TopCoinAllTime.CoinName)
	assert.Equal(t, int64(3), stats.TopCoinAllTime.Count)
	require.NotNil(t, stats.TopCoin24h)
	assert.Equal(t, "Bitcoin", stats.TopCoin24h.CoinName)
	assert.Equal(t, int64(1), stats.TopCoin24h.Count)
}

func TestGetStatsEmptyWindows(t *testing.T) {
	db := setupTestDB(t)
	r := statsRouter(db)
	admin := createTestUser(t, db, testAdminEmail)

	w := performJSON(t, r, http.MethodGet, "/api/admin/stats", nil, tokenFor(t, admin))
	require.Equal(t, http.StatusOK, w.Code)
	var stats statsPayload
	decodeData(t, decodeEnvelope(t, w), &stats)

	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(0), stats.TotalVotes)
	assert.Nil(t, stats.TopCoinAllTime, "empty ledger has no winner")
	assert.Nil(t, stats.TopCoin24h)
}

func TestGetStatsRequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	r := statsRouter(db)
	token := tokenFor(t, createTestUser(t, db, "plain@example.com"))

	w := performJSON(t, r, http.MethodGet, "/api/admin/stats", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performJSON(t, r, http.MethodGet, "/api/admin/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
