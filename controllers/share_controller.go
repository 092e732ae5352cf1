package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coinpulse/backend/models"
	"github.com/coinpulse/backend/utils"
)

// ShareController awards one share point per user per coin per
// reference-timezone day, and carries the recount repair tool.
type ShareController struct {
	db *gorm.DB
}

var errAlreadyAwarded = errors.New("share points already awarded today")

// NewShareController creates a ShareController.
func NewShareController(db *gorm.DB) *ShareController {
	return &ShareController{db: db}
}

// AwardShare records a share of a coin and increments the user's share points.
// The log insert and the counter increment are one transaction: both commit or
// both roll back, since a half-applied award is unrecoverable short of a full
// ledger recount.
func (s *ShareController) AwardShare(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	type request struct {
		CoinID string `json:"coinId" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "coin id is required")
		return
	}
	req.CoinID = strings.TrimSpace(req.CoinID)

	day := utils.TodayDate()
	var existing int64
	if err := s.db.Model(&models.ShareLog{}).
		Where("user_id = ? AND coin_id = ? AND share_day = ?", userID, req.CoinID, day).
		Count(&existing).Error; err != nil {
		utils.Sugar.Errorf("award share: lookup failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to check share status")
		return
	}
	if existing > 0 {
		s.rejectAlreadyAwarded(ctx, req.CoinID)
		return
	}

	var newTotal int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// sqlite has no FOR UPDATE; its single writer already serializes
		// the increment
		q := tx
		if tx.Dialector.Name() == "mysql" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var user models.User
		if err := q.First(&user, userID).Error; err != nil {
			return err
		}

		log := models.ShareLog{
			UserID:   userID,
			CoinID:   req.CoinID,
			ShareDay: day,
		}
		if err := tx.Create(&log).Error; err != nil {
			// the (user, coin, day) unique index catches a concurrent award
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyAwarded
			}
			return err
		}

		user.SharePoints++
		newTotal = user.SharePoints
		return tx.Save(&user).Error
	})

	if err != nil {
		if errors.Is(err, errAlreadyAwarded) {
			s.rejectAlreadyAwarded(ctx, req.CoinID)
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Sugar.Errorf("award share: transaction failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to record share")
		return
	}

	utils.Success(ctx, gin.H{
		"message":      "share points updated",
		"share_points": newTotal,
	})
}

func (s *ShareController) rejectAlreadyAwarded(ctx *gin.Context, coinID string) {
	remaining := utils.MsUntilMidnight()
	utils.Rejected(ctx, 40031,
		"you have already received points for sharing this coin today, try again in "+utils.FormatRemaining(remaining),
		gin.H{"remaining_ms": remaining, "coinId": coinID})
}

// RecomputeSharePoints sets every user's share_points to the count of their
// share_logs rows, healing drift from any historical partial write. Idempotent
// and safe to run with the system live; awards committed while it runs are
// picked up by the next invocation.
func (s *ShareController) RecomputeSharePoints(ctx *gin.Context) {
	type userCount struct {
		UserID uint  `gorm:"column:user_id"`
		Count  int64 `gorm:"column:count"`
	}
	var counts []userCount
	if err := s.db.Model(&models.ShareLog{}).
		Select("user_id, COUNT(*) as count").
		Group("user_id").
		Scan(&counts).Error; err != nil {
		utils.Sugar.Errorf("recompute share points: count failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to recompute share points")
		return
	}

	byUser := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byUser[c.UserID] = c.Count
	}

	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		utils.Sugar.Errorf("recompute share points: load users failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to recompute share points")
		return
	}

	corrected := 0
	for _, user := range users {
		want := int(byUser[user.ID])
		if user.SharePoints == want {
			continue
		}
		if err := s.db.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("share_points", want).Error; err != nil {
			utils.Sugar.Errorf("recompute share points: update user %d failed: %v", user.ID, err)
			utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to recompute share points")
			return
		}
		corrected++
	}

	utils.Sugar.Infof("recompute share points: %d of %d users corrected", corrected, len(users))
	utils.Success(ctx, gin.H{
		"users_checked":   len(users),
		"users_corrected": corrected,
	})
}
