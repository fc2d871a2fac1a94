package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lumo-engine/internal/http/response"
	"github.com/yungbote/lumo-engine/internal/platform/ctxutil"
	"github.com/yungbote/lumo-engine/internal/services"
)

type SyncHandler struct {
	svc services.SyncService
}

func NewSyncHandler(svc services.SyncService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// POST /api/sync/run
func (h *SyncHandler) Run(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	report, err := h.svc.RunCycle(c.Request.Context(), rd.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}

// GET /api/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	status, err := h.svc.Status(c.Request.Context(), rd.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": status})
}
