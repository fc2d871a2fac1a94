package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lumo-engine/internal/http/response"
	"github.com/yungbote/lumo-engine/internal/services"
)

type CardHandler struct {
	svc services.ShareCardService
}

func NewCardHandler(svc services.ShareCardService) *CardHandler {
	return &CardHandler{svc: svc}
}

// GET /api/sessions/:id/card.png
func (h *CardHandler) Render(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", errInvalidParam("id"))
		return
	}
	png, err := h.svc.Render(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
