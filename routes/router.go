package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coinpulse/backend/coingecko"
	"github.com/coinpulse/backend/config"
	"github.com/coinpulse/backend/controllers"
	"github.com/coinpulse/backend/middleware"
	"github.com/coinpulse/backend/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file via zap
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	market := coingecko.NewClient()

	authController := controllers.NewAuthController(db)
	voteController := controllers.NewVoteController(db, market)
	shareController := controllers.NewShareController(db)
	marketController := controllers.NewMarketController(market)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/signup", authController.Signup)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)

	votes := api.Group("/votes")
	votes.GET("", voteController.GetVotes)
	votes.GET("/time-based", voteController.GetTimeBasedVotes)
	votes.GET("/status", middleware.AuthRequired(), voteController.GetVoteStatus)
	votes.GET("/check/:coinId", middleware.AuthRequired(), voteController.CheckVote)
	votes.GET("/history", middleware.AuthRequired(), voteController.VotingHistory)
	votes.POST("", middleware.AuthRequired(), middleware.RateLimitMiddleware(), voteController.CastVote)

	api.POST("/share/x", middleware.AuthRequired(), middleware.RateLimitMiddleware(), shareController.AwardShare)

	coins := api.Group("/coins")
	coins.GET("", marketController.ListCoins)
	coins.GET("/search", marketController.SearchCoins)
	coins.GET("/details", marketController.CoinDetails)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.GET("/stats", statsController.GetStats)
	admin.POST("/recompute-share-points", shareController.RecomputeSharePoints)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
