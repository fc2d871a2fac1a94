package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lumo-engine/internal/data/repos"
	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/http/response"
	"github.com/yungbote/lumo-engine/internal/platform/ctxutil"
	"github.com/yungbote/lumo-engine/internal/services"
)

type SessionHandler struct {
	svc services.SessionService
}

func NewSessionHandler(svc services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type startSessionRequest struct {
	LessonID uuid.UUID `json:"lesson_id" binding:"required"`
	UnitID   uuid.UUID `json:"unit_id" binding:"required"`
}

// POST /api/sessions
func (h *SessionHandler) Start(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	// The service never dedups concurrent starts; this layer refuses
	// while an Active session exists for the lesson.
	ok, err := h.svc.CanStart(c.Request.Context(), rd.UserID, req.LessonID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !ok {
		response.RespondError(c, http.StatusConflict, "conflict", errActiveSessionExists)
		return
	}

	session, err := h.svc.Start(c.Request.Context(), rd.UserID, req.LessonID, req.UnitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// GET /api/sessions
func (h *SessionHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())

	var filter repos.SessionFilter
	if v := c.Query("status"); v != "" {
		status := domain.SessionStatus(v)
		if !status.Valid() {
			response.RespondError(c, http.StatusBadRequest, "validation", errInvalidQuery("status"))
			return
		}
		filter.Status = &status
	}
	if v := c.Query("lesson_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "validation", errInvalidQuery("lesson_id"))
			return
		}
		filter.LessonID = &id
	}
	if v := c.Query("unit_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "validation", errInvalidQuery("unit_id"))
			return
		}
		filter.UnitID = &id
	}

	sessions, err := h.svc.ListForUser(c.Request.Context(), rd.UserID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", errInvalidParam("id"))
		return
	}
	session, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// GET /api/sessions/can-start?lesson_id=...
func (h *SessionHandler) CanStart(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	lessonID, err := uuid.Parse(c.Query("lesson_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", errInvalidQuery("lesson_id"))
		return
	}
	ok, err := h.svc.CanStart(c.Request.Context(), rd.UserID, lessonID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"can_start": ok})
}

type recordAttemptRequest struct {
	ExerciseID       uuid.UUID            `json:"exercise_id" binding:"required"`
	ExerciseType     string               `json:"exercise_type" binding:"required"`
	Answer           domain.AnswerPayload `json:"answer"`
	IsCorrect        bool                 `json:"is_correct"`
	TimeSpentSeconds int                  `json:"time_spent_seconds"`
}

// POST /api/sessions/:id/attempts
func (h *SessionHandler) RecordAttempt(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", errInvalidParam("id"))
		return
	}
	var req recordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	attempt, err := h.svc.RecordAttempt(c.Request.Context(), services.RecordAttemptInput{
		SessionID:        sessionID,
		ExerciseID:       req.ExerciseID,
		ExerciseType:     req.ExerciseType,
		Answer:           req.Answer,
		IsCorrect:        req.IsCorrect,
		TimeSpentSeconds: req.TimeSpentSeconds,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attempt": attempt})
}

// POST /api/sessions/:id/pause
func (h *SessionHandler) Pause(c *gin.Context) {
	h.statusFlip(c, h.svc.Pause)
}

// POST /api/sessions/:id/resume
func (h *SessionHandler) Resume(c *gin.Context) {
	h.statusFlip(c, h.svc.Resume)
}

func (h *SessionHandler) statusFlip(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*domain.Session, error)) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", errInvalidParam("id"))
		return
	}
	session, err := op(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// POST /api/sessions/:id/complete
func (h *SessionHandler) Complete(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", errInvalidParam("id"))
		return
	}
	results, err := h.svc.Complete(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": results})
}
