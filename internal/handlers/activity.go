package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/focusforge/focusforge-backend/internal/requestdata"
	"github.com/focusforge/focusforge-backend/internal/services"
)

type ActivityHandler struct {
	activityService services.ActivityService
}

func NewActivityHandler(activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

type logActivityRequest struct {
	GoalID  string `json:"goal_id" binding:"required"`
	LogDate string `json:"log_date" binding:"required"`
	Minutes int    `json:"minutes" binding:"required"`
	Notes   string `json:"notes"`
}

// rejectionStatus maps validation reason codes onto HTTP statuses.
func rejectionStatus(code string) int {
	switch code {
	case services.RejectNotOwnerOrInactive:
		return http.StatusNotFound
	case services.RejectDuplicateForDay:
		return http.StatusConflict
	case services.RejectRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

func (h *ActivityHandler) LogActivity(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}

	var req logActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	goalID, err := uuid.Parse(req.GoalID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_GOAL_ID", err)
		return
	}
	logDate, err := time.Parse("2006-01-02", req.LogDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_LOG_DATE", fmt.Errorf("log_date must be YYYY-MM-DD"))
		return
	}

	result, err := h.activityService.LogActivity(
		services.DBContext{Ctx: c.Request.Context()},
		services.LogActivityInput{
			UserID:  rd.UserID,
			GoalID:  goalID,
			LogDate: logDate,
			Minutes: req.Minutes,
			Notes:   req.Notes,
		},
	)
	if err != nil {
		var rejection *services.RejectionError
		if errors.As(err, &rejection) {
			RespondError(c, rejectionStatus(rejection.Code), rejection.Code, errors.New(rejection.Message))
			return
		}
		RespondError(c, http.StatusInternalServerError, "INTERNAL", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
