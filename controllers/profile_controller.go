package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/joystreak/models"
	"github.com/cppla/joystreak/progression"
	"github.com/cppla/joystreak/utils"
)

// ProfileController serves player-facing reads and the daily coin claim.
type ProfileController struct {
	db     *gorm.DB
	ledger *progression.Ledger
	tz     *time.Location
}

// NewProfileController creates a new controller instance.
func NewProfileController(db *gorm.DB, ledger *progression.Ledger, tz *time.Location) *ProfileController {
	return &ProfileController{db: db, ledger: ledger, tz: tz}
}

// GetProfile returns the full progression card for a user, creating the
// default row on first contact so new members always get an answer.
func (p *ProfileController) GetProfile(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}
	username := utils.Sanitize(strings.TrimSpace(ctx.Query("username")))

	user, err := p.ledger.GetOrCreateUser(userID, username)
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	rules := p.ledger.Rules()
	tierName, tier := progression.TierFor(user.Level, user.Class, rules)
	currentReq := progression.ExperienceForLevel(user.Level)
	nextReq := progression.ExperienceForLevel(user.Level + 1)

	var achievements []models.Achievement
	if err := p.db.Where("discord_id = ?", userID).Order("completed_at ASC").Find(&achievements).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load achievements")
		return
	}

	utils.Success(ctx, gin.H{
		"user_id":          user.DiscordID,
		"username":         user.Username,
		"level":            user.Level,
		"xp":               user.XP,
		"xp_into_level":    user.XP - currentReq,
		"xp_to_next_level": nextReq - user.XP,
		"hp":               user.HP,
		"max_hp":           user.MaxHP,
		"coins":            user.Coins,
		"streak":           user.Streak,
		"depth":            user.Depth,
		"class":            user.Class,
		"tier":             tier,
		"tier_name":        tierName,
		"last_joy_day":     user.LastJoyDay,
		"achievements":     achievements,
	})
}

// leaderboard columns callers may sort by. Closed set, never interpolated
// from raw input.
var leaderboardColumns = map[string]string{
	"xp":     "xp",
	"level":  "level",
	"streak": "streak",
	"coins":  "coins",
	"depth":  "depth",
}

// GetLeaderboard returns the top users ordered by a whitelisted column.
// Results are cached briefly in Redis; the board tolerates slight staleness.
func (p *ProfileController) GetLeaderboard(ctx *gin.Context) {
	sortKey := strings.TrimSpace(ctx.DefaultQuery("sort", "xp"))
	column, ok := leaderboardColumns[sortKey]
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40013, "unsupported sort column")
		return
	}

	limit := 10
	if v := strings.TrimSpace(ctx.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	cacheKey := "cache:leaderboard:" + column + ":" + strconv.Itoa(limit)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var users []models.User
	if err := p.db.Order(column + " DESC").Limit(limit).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load leaderboard")
		return
	}

	entries := make([]gin.H, 0, len(users))
	for i, u := range users {
		entries = append(entries, gin.H{
			"rank":     i + 1,
			"user_id":  u.DiscordID,
			"username": u.Username,
			"level":    u.Level,
			"xp":       u.XP,
			"streak":   u.Streak,
			"coins":    u.Coins,
			"depth":    u.Depth,
		})
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{
		"sort":    sortKey,
		"entries": entries,
	}}
	utils.CacheSetJSON(cacheKey, wrapper, time.Minute)
	utils.Success(ctx, wrapper.Data)
}

// ClaimDaily grants the once-per-day coin allowance.
func (p *ProfileController) ClaimDaily(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	today := progression.DayOf(time.Now().In(p.tz))
	outcome, err := p.ledger.ClaimDaily(userID, today)
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, outcome)
}

type setClassRequest struct {
	Class string `json:"class" binding:"required"`
}

// SetClass assigns a class to a user who has reached the unlock level. The
// switch fully heals under the new formula.
func (p *ProfileController) SetClass(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}
	var req setClassRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40017, "class is required")
		return
	}

	outcome, err := p.ledger.AssignClass(userID, strings.ToLower(strings.TrimSpace(req.Class)))
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, outcome)
}

// GetClasses lists the selectable classes with their tier ladders so the
// connector can render a picker.
func (p *ProfileController) GetClasses(ctx *gin.Context) {
	rules := p.ledger.Rules()
	classes := make([]gin.H, 0, len(rules.Classes))
	for id, c := range rules.Classes {
		classes = append(classes, gin.H{
			"id":          id,
			"name":        c.Name,
			"description": c.Description,
			"hp_formula":  c.HP,
			"tiers":       c.Tiers,
		})
	}
	utils.Success(ctx, gin.H{
		"unlock_level": rules.ClassUnlockLevel,
		"classes":      classes,
	})
}
