package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/joystreak/progression"
	"github.com/cppla/joystreak/utils"
)

// respondLedgerError maps the ledger's typed failures onto the response
// envelope. Unknown errors become a generic 503 because ledger state is
// unchanged when they surface.
func respondLedgerError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, progression.ErrStaleEvent):
		utils.Error(ctx, http.StatusConflict, 40910, "event day precedes recorded progress")
	case errors.Is(err, progression.ErrAlreadyClaimed):
		utils.Error(ctx, http.StatusBadRequest, 40020, "daily coins already claimed")
	case errors.Is(err, progression.ErrUnknownClass):
		utils.Error(ctx, http.StatusBadRequest, 40021, "unknown class")
	case errors.Is(err, progression.ErrClassLocked):
		utils.Error(ctx, http.StatusForbidden, 40310, "class selection not yet unlocked")
	case errors.Is(err, progression.ErrTransientConflict):
		utils.Error(ctx, http.StatusServiceUnavailable, 50310, "temporary conflict, retry")
	default:
		utils.Error(ctx, http.StatusServiceUnavailable, 50300, "storage unavailable")
	}
}

// parseUserID reads the numeric platform user id from a path parameter.
func parseUserID(ctx *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(ctx.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid user id")
		return 0, false
	}
	return id, true
}
