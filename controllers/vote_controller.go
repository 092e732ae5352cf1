package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coinpulse/backend/coingecko"
	"github.com/coinpulse/backend/config"
	"github.com/coinpulse/backend/models"
	"github.com/coinpulse/backend/utils"
)

// VoteController gates and records vote attempts and serves the leaderboard
// aggregates over the vote ledger.
type VoteController struct {
	db     *gorm.DB
	market *coingecko.Client
}

// NewVoteController creates a VoteController. market may be nil, in which case
// voting history is served without price enrichment.
func NewVoteController(db *gorm.DB, market *coingecko.Client) *VoteController {
	return &VoteController{db: db, market: market}
}

type coinCount struct {
	CoinID string `gorm:"column:coin_id"`
	Count  int64  `gorm:"column:count"`
}

// votedToday reports whether a vote by this user today already blocks the
// given coin under the configured voting scope.
func (v *VoteController) votedToday(userID uint, coinID, day string) (bool, error) {
	q := v.db.Model(&models.Vote{}).Where("user_id = ? AND vote_day = ?", userID, day)
	if config.Get().VotingScope == config.VotingScopePerCoin {
		q = q.Where("coin_id = ?", coinID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetVotes returns all-time vote totals keyed by coin id.
func (v *VoteController) GetVotes(ctx *gin.Context) {
	var rows []coinCount
	if err := v.db.Model(&models.Vote{}).
		Select("coin_id, COUNT(*) as count").
		Group("coin_id").
		Scan(&rows).Error; err != nil {
		utils.Sugar.Errorf("get votes: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load votes")
		return
	}

	votes := map[string]int64{}
	for _, row := range rows {
		votes[row.CoinID] = row.Count
	}
	utils.Success(ctx, votes)
}

// windowedCounts aggregates the vote ledger per coin. The "today" window is
// calendar-aligned to the reference timezone to match the eligibility reset;
// the 7d and 90d windows are plain rolling instant windows. The two semantics
// are intentionally different and must not be conflated.
type windowedCounts struct {
	Votes24h int64 `json:"votes_24h"`
	Votes7d  int64 `json:"votes_7d"`
	Votes3m  int64 `json:"votes_3m"`
}

// GetTimeBasedVotes returns per-coin counts for today, last 7 days and last 90 days.
func (v *VoteController) GetTimeBasedVotes(ctx *gin.Context) {
	now := utils.Now()
	result := map[string]*windowedCounts{}

	merge := func(rows []coinCount, assign func(*windowedCounts, int64)) {
		for _, row := range rows {
			entry, ok := result[row.CoinID]
			if !ok {
				entry = &windowedCounts{}
				result[row.CoinID] = entry
			}
			assign(entry, row.Count)
		}
	}

	var today []coinCount
	if err := v.db.Model(&models.Vote{}).
		Select("coin_id, COUNT(*) as count").
		Where("vote_day = ?", utils.TodayDate()).
		Group("coin_id").
		Scan(&today).Error; err != nil {
		utils.Sugar.Errorf("time-based votes (today): %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to load votes")
		return
	}
	merge(today, func(w *windowedCounts, n int64) { w.Votes24h = n })

	var week []coinCount
	if err := v.db.Model(&models.Vote{}).
		Select("coin_id, COUNT(*) as count").
		Where("created_at >= ?", now.Add(-7*24*time.Hour)).
		Group("coin_id").
		Scan(&week).Error; err != nil {
		utils.Sugar.Errorf("time-based votes (7d): %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to load votes")
		return
	}
	merge(week, func(w *windowedCounts, n int64) { w.Votes7d = n })

	var quarter []coinCount
	if err := v.db.Model(&models.Vote{}).
		Select("coin_id, COUNT(*) as count").
		Where("created_at >= ?", now.Add(-90*24*time.Hour)).
		Group("coin_id").
		Scan(&quarter).Error; err != nil {
		utils.Sugar.Errorf("time-based votes (90d): %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to load votes")
		return
	}
	merge(quarter, func(w *windowedCounts, n int64) { w.Votes3m = n })

	utils.Success(ctx, result)
}

// GetVoteStatus lists the coins the caller has voted for today.
func (v *VoteController) GetVoteStatus(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var votes []models.Vote
	if err := v.db.Where("user_id = ? AND vote_day = ?", userID, utils.TodayDate()).
		Order("created_at DESC").
		Find(&votes).Error; err != nil {
		utils.Sugar.Errorf("vote status: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load vote status")
		return
	}

	voted := make([]gin.H, 0, len(votes))
	for _, vote := range votes {
		voted = append(voted, gin.H{"coinId": vote.CoinID, "votedAt": vote.CreatedAt})
	}
	utils.Success(ctx, gin.H{"votedCoins": voted})
}

// CheckVote reports whether the caller may currently vote for a coin, with the
// time remaining until the next reset when blocked. Repeated calls without an
// intervening cast never change the answer.
func (v *VoteController) CheckVote(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	coinID := strings.TrimSpace(ctx.Param("coinId"))
	if coinID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40010, "coin id is required")
		return
	}

	blocked, err := v.votedToday(userID, coinID, utils.TodayDate())
	if err != nil {
		utils.Sugar.Errorf("check vote: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to check vote status")
		return
	}

	if blocked {
		utils.Success(ctx, gin.H{"canVote": false, "remaining_ms": utils.MsUntilMidnight()})
		return
	}
	utils.Success(ctx, gin.H{"canVote": true})
}

// CastVote validates eligibility and appends a vote to the ledger. Eligibility
// is re-verified here, not trusted from a prior CheckVote, and the composite
// unique index rejects whichever of two concurrent casts loses the race.
func (v *VoteController) CastVote(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	type request struct {
		CoinID   string `json:"coinId" binding:"required"`
		CoinName string `json:"coinName" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "coinId and coinName are required")
		return
	}

	day := utils.TodayDate()
	blocked, err := v.votedToday(userID, req.CoinID, day)
	if err != nil {
		utils.Sugar.Errorf("cast vote: eligibility check failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to check vote status")
		return
	}
	if blocked {
		v.rejectAlreadyVoted(ctx, req.CoinName)
		return
	}

	vote := models.Vote{
		UserID:   userID,
		CoinID:   req.CoinID,
		CoinName: req.CoinName,
		VoteDay:  day,
	}
	if err := v.db.Create(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			v.rejectAlreadyVoted(ctx, req.CoinName)
			return
		}
		utils.Sugar.Errorf("cast vote: insert failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to record vote")
		return
	}

	resp := gin.H{
		"message": "vote cast successfully",
		"coinId":  req.CoinID,
	}
	var total int64
	if err := v.db.Model(&models.Vote{}).Where("coin_id = ?", req.CoinID).Count(&total).Error; err != nil {
		// the vote itself is committed; a zero total would misreport it
		utils.Sugar.Warnf("cast vote: total count failed for %s: %v", req.CoinID, err)
	} else {
		resp["total_votes"] = total
	}
	utils.Success(ctx, resp)
}

func (v *VoteController) rejectAlreadyVoted(ctx *gin.Context, coinName string) {
	remaining := utils.MsUntilMidnight()
	utils.Rejected(ctx, 40030,
		"you already voted for "+coinName+" today, try again in "+utils.FormatRemaining(remaining),
		gin.H{"remaining_ms": remaining, "coinName": coinName})
}

// historyEntry is one row of a user's voting history: the latest vote per
// coin, optionally enriched with market data. Enrichment fields are explicit
// nullables so their absence is visible in the payload.
type historyEntry struct {
	CoinID       string    `json:"coinId"`
	CoinName     string    `json:"coinName"`
	VotedAt      time.Time `json:"votedAt"`
	CoinImage    *string   `json:"coinImage"`
	CurrentPrice *float64  `json:"currentPrice"`
	Symbol       *string   `json:"symbol"`
}

// VotingHistory returns the caller's most recent vote per coin, newest first,
// enriched with market data when the upstream provider is reachable.
func (v *VoteController) VotingHistory(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var votes []models.Vote
	if err := v.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&votes).Error; err != nil {
		utils.Sugar.Errorf("voting history: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to load voting history")
		return
	}

	// one entry per coin id, keyed on the newest row so a renamed coin does
	// not produce duplicates; already ordered newest first
	type latestVote struct {
		CoinID      string
		CoinName    string
		LastVotedAt time.Time
	}
	seen := map[string]bool{}
	rows := make([]latestVote, 0, len(votes))
	for _, vote := range votes {
		if seen[vote.CoinID] {
			continue
		}
		seen[vote.CoinID] = true
		rows = append(rows, latestVote{
			CoinID:      vote.CoinID,
			CoinName:    vote.CoinName,
			LastVotedAt: vote.CreatedAt,
		})
	}

	if len(rows) == 0 {
		utils.Success(ctx, gin.H{"votes": []historyEntry{}})
		return
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.CoinID)
	}
	details := v.coinDetails(ctx, ids)

	entries := make([]historyEntry, 0, len(rows))
	for _, row := range rows {
		entry := historyEntry{
			CoinID:   row.CoinID,
			CoinName: row.CoinName,
			VotedAt:  row.LastVotedAt,
		}
		if d, ok := details[row.CoinID]; ok {
			if d.Image != "" {
				img := d.Image
				entry.CoinImage = &img
			}
			if d.Symbol != "" {
				sym := d.Symbol
				entry.Symbol = &sym
			}
			entry.CurrentPrice = d.CurrentPrice
		}
		entries = append(entries, entry)
	}

	utils.Success(ctx, gin.H{"votes": entries})
}

// coinDetails loads market rows for the given ids, via cache when possible.
// A failed upstream fetch degrades to an empty map; history is still served.
func (v *VoteController) coinDetails(ctx *gin.Context, ids []string) map[string]coingecko.Market {
	details := map[string]coingecko.Market{}
	if v.market == nil || len(ids) == 0 {
		return details
	}

	cacheKey := "cache:coin_details:" + strings.Join(ids, ",")
	markets, ok := cachedMarkets(cacheKey)
	if !ok {
		var err error
		markets, err = v.market.MarketsByIDs(ctx.Request.Context(), "usd", ids)
		if err != nil {
			utils.Sugar.Warnf("voting history: market enrichment unavailable: %v", err)
			return details
		}
		utils.CacheSetJSON(cacheKey, markets, marketCacheTTL())
	}

	for _, m := range markets {
		details[m.ID] = m
	}
	return details
}
