package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionActive, SessionPaused, SessionCompleted, SessionAbandoned:
		return true
	}
	return false
}

func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// Rank orders statuses by terminality for sync reconciliation: a pulled
// server copy only overwrites the local one when its rank is higher, so a
// stale read can never revive a session the learner already finished.
func (s SessionStatus) Rank() int {
	switch s {
	case SessionActive:
		return 0
	case SessionPaused:
		return 1
	case SessionAbandoned:
		return 2
	case SessionCompleted:
		return 3
	}
	return -1
}

// Session is one learner's pass through a lesson. Rows are never deleted;
// newer sessions for the same lesson supersede older ones.
type Session struct {
	ID                   uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	LessonID             uuid.UUID     `gorm:"type:uuid;not null;index" json:"lesson_id"`
	UnitID               uuid.UUID     `gorm:"type:uuid;not null;index" json:"unit_id"`
	Status               SessionStatus `gorm:"type:text;not null;index" json:"status"`
	StartedAt            time.Time     `gorm:"not null" json:"started_at"`
	CompletedAt          *time.Time    `json:"completed_at,omitempty"`
	CurrentExerciseIndex int           `gorm:"not null;default:0" json:"current_exercise_index"`
	TotalExercises       int           `gorm:"not null;default:0" json:"total_exercises"`
	ProgressPercentage   float64       `gorm:"not null;default:0" json:"progress_percentage"`
	CreatedAt            time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time     `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "session" }
