package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/joystreak/progression"
	"github.com/cppla/joystreak/utils"
)

// EventController ingests qualifying chat events from the connector and
// turns them into ledger transitions.
type EventController struct {
	ledger *progression.Ledger
	tz     *time.Location
}

// NewEventController creates a new controller instance.
func NewEventController(ledger *progression.Ledger, tz *time.Location) *EventController {
	return &EventController{ledger: ledger, tz: tz}
}

type joyEventRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username"`
	// Day optionally pins the event to a specific calendar day
	// ("2006-01-02"). When absent the configured timezone decides.
	Day string `json:"day"`
}

// SubmitJoy processes one qualifying event: streak advance, experience,
// milestone and the community counter. Double submissions are accepted at
// the HTTP level and reported as a break in the payload, mirroring how the
// connector announces them.
func (e *EventController) SubmitJoy(ctx *gin.Context) {
	var req joyEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "user_id is required")
		return
	}

	day, ok := e.resolveDay(ctx, req.Day)
	if !ok {
		return
	}

	outcome, err := e.ledger.ApplyQualifyingEvent(req.UserID, utils.Sanitize(req.Username), day)
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, outcome)
}

// resolveDay parses an explicit day or derives today in the community
// timezone. Day boundaries are a property of the community, not of the
// server host clock.
func (e *EventController) resolveDay(ctx *gin.Context, raw string) (progression.Day, bool) {
	if raw == "" {
		return progression.DayOf(time.Now().In(e.tz)), true
	}
	day, err := progression.ParseDay(raw)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "day must be formatted as 2006-01-02")
		return "", false
	}
	return day, true
}
