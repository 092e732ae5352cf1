package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coinpulse/backend/models"
	"github.com/coinpulse/backend/utils"
)

// StatsController serves the admin statistics view: totals, top coins and the
// upstream API hit counter.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// topCoin holds a leaderboard winner for a window. Ties break on whatever
// stable order the aggregation returns.
type topCoin struct {
	CoinName string `gorm:"column:coin_name" json:"coin_name"`
	Count    int64  `gorm:"column:count" json:"count"`
}

// topCoinSince returns the most voted coin since the cutoff, or nil when the
// window is empty. A zero cutoff means all-time.
func (s *StatsController) topCoinSince(cutoff time.Time) (*topCoin, error) {
	q := s.db.Model(&models.Vote{}).
		Select("coin_name, COUNT(*) as count").
		Group("coin_name").
		Order("count DESC").
		Limit(1)
	if !cutoff.IsZero() {
		q = q.Where("created_at >= ?", cutoff)
	}

	var rows []topCoin
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetStats returns aggregate statistics for the operator dashboard.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var totalUsers int64
	if err := s.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		utils.Sugar.Errorf("admin stats: user count failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load stats")
		return
	}

	var totalVotes int64
	if err := s.db.Model(&models.Vote{}).Count(&totalVotes).Error; err != nil {
		utils.Sugar.Errorf("admin stats: vote count failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load stats")
		return
	}

	allTime, err := s.topCoinSince(time.Time{})
	if err != nil {
		utils.Sugar.Errorf("admin stats: top coin all-time failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load stats")
		return
	}

	last24h, err := s.topCoinSince(utils.Now().Add(-24 * time.Hour))
	if err != nil {
		utils.Sugar.Errorf("admin stats: top coin 24h failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load stats")
		return
	}

	utils.Success(ctx, gin.H{
		"api_hits_today":    utils.UpstreamHits(),
		"total_users":       totalUsers,
		"total_votes":       totalVotes,
		"top_coin_all_time": allTime,
		"top_coin_24h":      last24h,
	})
}
