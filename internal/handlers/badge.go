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

type BadgeHandler struct {
	badgeService services.BadgeService
}

func NewBadgeHandler(badgeService services.BadgeService) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService}
}

func (h *BadgeHandler) GetProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}

	progress, err := h.badgeService.GetProgress(
		services.DBContext{Ctx: c.Request.Context()}, rd.UserID, time.Now())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "INTERNAL", err)
		return
	}
	RespondOK(c, gin.H{"badges": progress})
}
