package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/focusforge/focusforge-backend/internal/requestdata"
	"github.com/focusforge/focusforge-backend/internal/services"
)

type StreakHandler struct {
	streakService services.StreakService
}

func NewStreakHandler(streakService services.StreakService) *StreakHandler {
	return &StreakHandler{streakService: streakService}
}

func (h *StreakHandler) GetForGoal(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	goalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_GOAL_ID", err)
		return
	}

	view, err := h.streakService.GetCurrent(
		services.DBContext{Ctx: c.Request.Context()}, rd.UserID, goalID, time.Now())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "INTERNAL", err)
		return
	}
	RespondOK(c, gin.H{"streak": view})
}

func (h *StreakHandler) GetAll(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}

	views, err := h.streakService.GetAllForUser(
		services.DBContext{Ctx: c.Request.Context()}, rd.UserID, time.Now())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "INTERNAL", err)
		return
	}
	RespondOK(c, gin.H{"streaks": views})
}
