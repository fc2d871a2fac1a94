package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OutboxEntry is one pending write destined for the remote platform. Entries
// are drained FIFO by enqueue time; the idempotency key is derived from the
// logical operation so a crash-and-rederive collapses onto the same row.
type OutboxEntry struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	IdempotencyKey string         `gorm:"type:text;not null;uniqueIndex" json:"idempotency_key"`
	Endpoint       string         `gorm:"type:text;not null" json:"endpoint"`
	Method         string         `gorm:"type:text;not null" json:"method"`
	Headers        datatypes.JSON `gorm:"column:headers" json:"headers"`
	Payload        datatypes.JSON `gorm:"column:payload" json:"payload"`
	EnqueuedAt     time.Time      `gorm:"not null;index" json:"enqueued_at"`
	AttemptCount   int            `gorm:"not null;default:0" json:"attempt_count"`
	NextRetryAt    *time.Time     `gorm:"index" json:"next_retry_at,omitempty"`
	LastError      string         `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (OutboxEntry) TableName() string { return "outbox_entry" }
