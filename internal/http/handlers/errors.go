package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lumo-engine/internal/http/response"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
)

var errActiveSessionExists = errors.New("an active session already exists for this lesson")

// respondServiceError maps the service error taxonomy onto status codes.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrSessionNotActive), errors.Is(err, apperr.ErrSessionTerminal):
		response.RespondError(c, http.StatusConflict, "conflict", err)
	case apperr.IsValidation(err):
		response.RespondError(c, http.StatusBadRequest, "validation", err)
	case apperr.IsStorage(err):
		response.RespondError(c, http.StatusInternalServerError, "storage", err)
	default:
		response.RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
