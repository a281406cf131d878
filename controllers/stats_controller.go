package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/joystreak/models"
	"github.com/cppla/joystreak/utils"
)

// StatsController provides community-wide statistics such as the shared
// streak and member counts.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetServerStats returns the community streak and aggregate counts.
func (s *StatsController) GetServerStats(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes("cache:server:stats"); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var stats models.ServerStats
	if err := s.db.First(&stats, models.ServerStatsID).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load server stats")
			return
		}
		stats = models.ServerStats{ID: models.ServerStatsID}
	}

	var userCount int64
	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		userCount = 0
	}

	var achievementCount int64
	if err := s.db.Model(&models.Achievement{}).Where("completed = ?", true).Count(&achievementCount).Error; err != nil {
		achievementCount = 0
	}

	var totalXP int64
	if err := s.db.Model(&models.User{}).Select("COALESCE(SUM(xp),0)").Scan(&totalXP).Error; err != nil {
		totalXP = 0
	}

	var topPlayer gin.H
	var top models.User
	if err := s.db.Order("xp DESC").First(&top).Error; err == nil {
		topPlayer = gin.H{
			"user_id":  top.DiscordID,
			"username": top.Username,
			"level":    top.Level,
			"xp":       top.XP,
		}
	}

	payload := gin.H{
		"server_streak":      stats.ServerStreak,
		"last_joy_day":       stats.LastJoyDay,
		"monsters_slain":     stats.MonstersSlain,
		"user_count":         userCount,
		"total_xp":           totalXP,
		"top_player":         topPlayer,
		"achievements_award": achievementCount,
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON("cache:server:stats", wrapper, 30*time.Second)
	utils.Success(ctx, payload)
}
