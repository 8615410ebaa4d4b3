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

type TrustHandler struct {
	trustService services.TrustService
}

func NewTrustHandler(trustService services.TrustService) *TrustHandler {
	return &TrustHandler{trustService: trustService}
}

func (h *TrustHandler) GetSummary(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}

	summary, err := h.trustService.GetSummary(
		services.DBContext{Ctx: c.Request.Context()}, rd.UserID, time.Now())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "INTERNAL", err)
		return
	}
	RespondOK(c, summary)
}
