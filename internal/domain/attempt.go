package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ExerciseAttempt holds the current answer state for one exercise within one
// session. There is exactly one row per (session, exercise); the top-level
// fields always mirror the last entry of History, so readers never fold the
// history themselves.
type ExerciseAttempt struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_session_exercise" json:"session_id"`
	ExerciseID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_session_exercise" json:"exercise_id"`
	ExerciseType     string         `gorm:"type:text;not null" json:"exercise_type"`
	AttemptNumber    int            `gorm:"not null" json:"attempt_number"`
	Answer           datatypes.JSON `gorm:"column:answer" json:"answer"`
	IsCorrect        bool           `gorm:"not null" json:"is_correct"`
	TimeSpentSeconds int            `gorm:"not null;default:0" json:"time_spent_seconds"`
	SubmittedAt      time.Time      `gorm:"not null" json:"submitted_at"`
	History          datatypes.JSON `gorm:"column:history" json:"history"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (ExerciseAttempt) TableName() string { return "exercise_attempt" }

// AttemptRevision is one entry of the embedded append-only history array.
type AttemptRevision struct {
	AttemptNumber    int             `json:"attempt_number"`
	Answer           json.RawMessage `json:"answer"`
	IsCorrect        bool            `json:"is_correct"`
	TimeSpentSeconds int             `json:"time_spent_seconds"`
	SubmittedAt      time.Time       `json:"submitted_at"`
}

func (a *ExerciseAttempt) Revisions() ([]AttemptRevision, error) {
	if len(a.History) == 0 {
		return nil, nil
	}
	var revs []AttemptRevision
	if err := json.Unmarshal(a.History, &revs); err != nil {
		return nil, fmt.Errorf("decode attempt history: %w", err)
	}
	return revs, nil
}

// AppendRevision appends rev to History and mirrors it into the top-level
// fields. AttemptNumber is assigned here: previous max + 1.
func (a *ExerciseAttempt) AppendRevision(answer AnswerPayload, isCorrect bool, timeSpent int, submittedAt time.Time) error {
	revs, err := a.Revisions()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	rev := AttemptRevision{
		AttemptNumber:    len(revs) + 1,
		Answer:           raw,
		IsCorrect:        isCorrect,
		TimeSpentSeconds: timeSpent,
		SubmittedAt:      submittedAt,
	}
	revs = append(revs, rev)
	encoded, err := json.Marshal(revs)
	if err != nil {
		return fmt.Errorf("encode attempt history: %w", err)
	}
	a.History = datatypes.JSON(encoded)
	a.AttemptNumber = rev.AttemptNumber
	a.Answer = datatypes.JSON(raw)
	a.IsCorrect = rev.IsCorrect
	a.TimeSpentSeconds = rev.TimeSpentSeconds
	a.SubmittedAt = rev.SubmittedAt
	return nil
}

// TotalTimeSpent sums time across every revision, not just the last one.
func (a *ExerciseAttempt) TotalTimeSpent() int {
	revs, err := a.Revisions()
	if err != nil {
		return a.TimeSpentSeconds
	}
	total := 0
	for _, r := range revs {
		total += r.TimeSpentSeconds
	}
	return total
}
