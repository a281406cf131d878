package main

import (
	"time"

	"github.com/cppla/joystreak/config"
	"github.com/cppla/joystreak/models"
	"github.com/cppla/joystreak/progression"
	"github.com/cppla/joystreak/routes"
	"github.com/cppla/joystreak/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		utils.Sugar.Fatalf("invalid timezone %q: %v", cfg.Timezone, err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.ServerStats{},
		&models.DailySender{},
		&models.Achievement{},
	)

	rules, err := config.LoadGameRules()
	if err != nil {
		utils.Sugar.Fatalf("failed to load game rules: %v", err)
	}

	ledger := progression.NewLedger(db, rules)

	r := routes.SetupRouter(db, ledger, tz)

	// Best-effort pruning of old daily sender rows
	utils.StartRetentionCleaner(ledger, cfg.DailyRetentionDays, tz, time.Hour)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
