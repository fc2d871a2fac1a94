package domain

import (
	"time"

	"github.com/google/uuid"
)

type SyncResult string

const (
	SyncNever   SyncResult = "never"
	SyncOK      SyncResult = "ok"
	SyncPartial SyncResult = "partial"
	SyncOffline SyncResult = "offline"
	SyncFailed  SyncResult = "failed"
)

// SyncState is the per-user observability snapshot of the last sync cycle.
type SyncState struct {
	UserID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`
	LastResult     SyncResult `gorm:"type:text;not null;default:never" json:"last_result"`
	LastError      string     `gorm:"type:text" json:"last_error,omitempty"`
	PendingWrites  int        `gorm:"not null;default:0" json:"pending_writes"`
	PulledSessions int        `gorm:"not null;default:0" json:"pulled_sessions"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (SyncState) TableName() string { return "sync_state" }
