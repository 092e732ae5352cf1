package main

import (
	"time"

	"github.com/coinpulse/backend/config"
	"github.com/coinpulse/backend/models"
	"github.com/coinpulse/backend/routes"
	"github.com/coinpulse/backend/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Vote{}, &models.ShareLog{})

	r := routes.SetupRouter(db)

	// Upstream API hit counter feeds the admin stats view; zeroed daily.
	utils.StartUpstreamHitReset(24 * time.Hour)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
