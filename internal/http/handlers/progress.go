package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lumo-engine/internal/http/response"
	"github.com/yungbote/lumo-engine/internal/platform/ctxutil"
	"github.com/yungbote/lumo-engine/internal/services"
)

type ProgressHandler struct {
	svc services.ProgressService
}

func NewProgressHandler(svc services.ProgressService) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

// GET /api/lessons/:lessonID/objectives
func (h *ProgressHandler) LessonObjectives(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	lessonID, err := uuid.Parse(c.Param("lessonID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", errInvalidParam("lessonID"))
		return
	}
	objectives, err := h.svc.LessonObjectives(c.Request.Context(), rd.UserID, lessonID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"objectives": objectives})
}

// GET /api/units/:unitID/progress
func (h *ProgressHandler) UnitProgress(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	unitID, err := uuid.Parse(c.Param("unitID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", errInvalidParam("unitID"))
		return
	}
	progress, err := h.svc.UnitProgress(c.Request.Context(), rd.UserID, unitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": progress})
}
