package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionResults is the completion-time scorecard, computed from the last
// attempt per exercise.
type SessionResults struct {
	SessionID             uuid.UUID `json:"session_id"`
	LessonID              uuid.UUID `json:"lesson_id"`
	UnitID                uuid.UUID `json:"unit_id"`
	TotalExercises        int       `json:"total_exercises"`
	AttemptedExercises    int       `json:"attempted_exercises"`
	CorrectExercises      int       `json:"correct_exercises"`
	ScorePercentage       float64   `json:"score_percentage"`
	Grade                 string    `json:"grade"`
	TotalTimeSpentSeconds int       `json:"total_time_spent_seconds"`
	CompletedAt           time.Time `json:"completed_at"`
}

func GradeFor(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
