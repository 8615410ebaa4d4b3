package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/focusforge/focusforge-backend/internal/requestdata"
	"github.com/focusforge/focusforge-backend/internal/services"
	"github.com/focusforge/focusforge-backend/internal/types"
)

type LeaderboardHandler struct {
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

func scopeFromQuery(c *gin.Context) (string, *string) {
	period := c.DefaultQuery("period", types.PeriodWeekly)
	var category *string
	if raw := c.Query("category"); raw != "" {
		category = &raw
	}
	return period, category
}

func (h *LeaderboardHandler) Get(c *gin.Context) {
	period, category := scopeFromQuery(c)
	view, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), period, category)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PERIOD", err)
		return
	}
	RespondOK(c, view)
}

func (h *LeaderboardHandler) GetMyRank(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}

	period, category := scopeFromQuery(c)
	rankContext, err := h.leaderboardService.GetRankContext(c.Request.Context(), rd.UserID, period, category)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PERIOD", err)
		return
	}
	RespondOK(c, rankContext)
}
