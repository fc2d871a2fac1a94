package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ObjectiveTally is the per-learning-objective slice of a completed session:
// how many tagged exercises were attempted and how many ended correct.
// Correct never exceeds Attempted.
type ObjectiveTally struct {
	Attempted int `json:"attempted"`
	Correct   int `json:"correct"`
}

// SessionOutcomeSummary is the durable projection written once at session
// completion. Raw attempt rows are reclaimed afterwards; this row is the
// evidence trail progress aggregation runs on. Immutable once written.
type SessionOutcomeSummary struct {
	SessionID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"session_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	UnitID      uuid.UUID `gorm:"type:uuid;not null;index" json:"unit_id"`
	LessonID    uuid.UUID `gorm:"type:uuid;not null;index" json:"lesson_id"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
	// TotalTimeSpentSeconds sums every revision of every attempt, so a
	// retried completion can report it after the attempt rows are gone.
	TotalTimeSpentSeconds int            `gorm:"not null;default:0" json:"total_time_spent_seconds"`
	LOStats               datatypes.JSON `gorm:"column:lo_stats" json:"lo_stats"`
	CreatedAt             time.Time      `gorm:"not null" json:"created_at"`
}

func (SessionOutcomeSummary) TableName() string { return "session_outcome_summary" }

func (s *SessionOutcomeSummary) Stats() (map[uuid.UUID]ObjectiveTally, error) {
	if len(s.LOStats) == 0 {
		return map[uuid.UUID]ObjectiveTally{}, nil
	}
	var stats map[uuid.UUID]ObjectiveTally
	if err := json.Unmarshal(s.LOStats, &stats); err != nil {
		return nil, fmt.Errorf("decode lo_stats: %w", err)
	}
	return stats, nil
}

func (s *SessionOutcomeSummary) SetStats(stats map[uuid.UUID]ObjectiveTally) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode lo_stats: %w", err)
	}
	s.LOStats = datatypes.JSON(raw)
	return nil
}
