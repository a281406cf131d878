package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/joystreak/middleware"
	"github.com/cppla/joystreak/progression"
	"github.com/cppla/joystreak/utils"
)

// AdminController exposes moderation and game-master operations. Every
// route behind it requires an admin service account.
type AdminController struct {
	ledger *progression.Ledger
}

// NewAdminController creates a new controller instance.
func NewAdminController(ledger *progression.Ledger) *AdminController {
	return &AdminController{ledger: ledger}
}

type amountRequest struct {
	Amount int `json:"amount" binding:"required"`
}

// GrantExperience adds or removes experience. Negative amounts are allowed
// and clamp at zero total.
func (a *AdminController) GrantExperience(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}
	var req amountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40014, "amount is required")
		return
	}

	outcome, err := a.ledger.GrantExperience(userID, req.Amount)
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Sugar.Infow("admin granted experience",
		"admin", ctx.GetString(middleware.ContextAccountKey),
		"user_id", userID,
		"amount", req.Amount,
	)
	utils.Success(ctx, outcome)
}

// GrantCoins adjusts a coin balance, clamped at zero.
func (a *AdminController) GrantCoins(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}
	var req amountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40014, "amount is required")
		return
	}

	outcome, err := a.ledger.GrantCoins(userID, req.Amount)
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}
	utils.Success(ctx, outcome)
}

// ApplyDamage subtracts hit points, flooring at zero.
func (a *AdminController) ApplyDamage(ctx *gin.Context) {
	a.adjustHP(ctx, a.ledger.ApplyDamage)
}

// ApplyHealing restores hit points up to max HP.
func (a *AdminController) ApplyHealing(ctx *gin.Context) {
	a.adjustHP(ctx, a.ledger.ApplyHealing)
}

func (a *AdminController) adjustHP(ctx *gin.Context, apply func(int64, int) (*progression.HPOutcome, error)) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}
	var req amountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Amount < 0 {
		utils.Error(ctx, http.StatusBadRequest, 40015, "a non-negative amount is required")
		return
	}

	outcome, err := apply(userID, req.Amount)
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}
	utils.Success(ctx, outcome)
}

// ResetUser wipes one user's progression entirely.
func (a *AdminController) ResetUser(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	if err := a.ledger.ResetUser(userID); err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Sugar.Warnw("admin reset user",
		"admin", ctx.GetString(middleware.ContextAccountKey),
		"user_id", userID,
	)
	utils.Success(ctx, gin.H{"message": "user reset"})
}

type resetAllRequest struct {
	Confirm string `json:"confirm"`
}

// ResetAll wipes every progression table. The caller must echo the exact
// confirmation phrase; the connector collects it interactively.
func (a *AdminController) ResetAll(ctx *gin.Context) {
	var req resetAllRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Confirm != "RESET EVERYTHING" {
		utils.Error(ctx, http.StatusBadRequest, 40016, `confirmation phrase "RESET EVERYTHING" required`)
		return
	}

	if err := a.ledger.ResetAll(); err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Sugar.Warnw("admin reset all progression",
		"admin", ctx.GetString(middleware.ContextAccountKey),
	)
	utils.Success(ctx, gin.H{"message": "all progression reset"})
}

// ForceNewDay clears the daily ledgers so daily mechanics can be exercised
// again without waiting for midnight. Streaks and experience survive.
func (a *AdminController) ForceNewDay(ctx *gin.Context) {
	if err := a.ledger.ForceNewDay(); err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Sugar.Infow("admin forced a new day",
		"admin", ctx.GetString(middleware.ContextAccountKey),
	)
	utils.Success(ctx, gin.H{"message": "daily ledgers cleared"})
}
