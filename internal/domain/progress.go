package domain

import (
	"time"

	"github.com/google/uuid"
)

type ObjectiveStatus string

const (
	ObjectiveNotStarted ObjectiveStatus = "not_started"
	ObjectivePartial    ObjectiveStatus = "partial"
	ObjectiveCompleted  ObjectiveStatus = "completed"
)

// ObjectiveProgress is one learning objective's mastery state as of now.
// Derived on every query, never stored.
type ObjectiveProgress struct {
	ObjectiveID             uuid.UUID       `json:"lo_id"`
	Title                   string          `json:"title"`
	Description             string          `json:"description"`
	ExercisesTotal          int             `json:"exercises_total"`
	ExercisesAttempted      int             `json:"exercises_attempted"`
	ExercisesCorrect        int             `json:"exercises_correct"`
	Status                  ObjectiveStatus `json:"status"`
	NewlyCompletedInSession bool            `json:"newly_completed_in_session"`
}

// StatusFor applies the mastery rules: completed iff every tagged exercise
// is correct (and there is at least one), partial iff anything was
// attempted, not-started otherwise.
func StatusFor(total, attempted, correct int) ObjectiveStatus {
	if total > 0 && correct >= total {
		return ObjectiveCompleted
	}
	if attempted > 0 {
		return ObjectivePartial
	}
	return ObjectiveNotStarted
}

type UnitProgress struct {
	UnitID              uuid.UUID           `json:"unit_id"`
	UserID              uuid.UUID           `json:"user_id"`
	Title               string              `json:"title"`
	Objectives          []ObjectiveProgress `json:"objectives"`
	ObjectivesCompleted int                 `json:"objectives_completed"`
	ObjectivesTotal     int                 `json:"objectives_total"`
	ComputedAt          time.Time           `json:"computed_at"`
}
