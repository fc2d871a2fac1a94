package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

type OutboxEntryRepo interface {
	// Insert adds the entry unless its idempotency key is already pending.
	// Returns true when a new row was written.
	Insert(ctx context.Context, tx *gorm.DB, entry *domain.OutboxEntry) (bool, error)
	GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, key string) (*domain.OutboxEntry, error)
	ListDue(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]*domain.OutboxEntry, error)
	Reschedule(ctx context.Context, tx *gorm.DB, id uuid.UUID, attemptCount int, nextRetryAt time.Time, lastErr string) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CountPending(ctx context.Context, tx *gorm.DB) (int64, error)
}

type outboxEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOutboxEntryRepo(db *gorm.DB, baseLog *logger.Logger) OutboxEntryRepo {
	repoLog := baseLog.With("repo", "OutboxEntryRepo")
	return &outboxEntryRepo{db: db, log: repoLog}
}

func (r *outboxEntryRepo) Insert(ctx context.Context, tx *gorm.DB, entry *domain.OutboxEntry) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if entry == nil || entry.IdempotencyKey == "" {
		return false, apperr.Validation("outbox idempotency key required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = time.Now().UTC()
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *outboxEntryRepo) GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, key string) (*domain.OutboxEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if key == "" {
		return nil, apperr.ErrNotFound
	}

	var result domain.OutboxEntry
	if err := transaction.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *outboxEntryRepo) ListDue(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]*domain.OutboxEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.OutboxEntry
	q := transaction.WithContext(ctx).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("enqueued_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *outboxEntryRepo) Reschedule(ctx context.Context, tx *gorm.DB, id uuid.UUID, attemptCount int, nextRetryAt time.Time, lastErr string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&domain.OutboxEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempt_count": attemptCount,
			"next_retry_at": nextRetryAt,
			"last_error":    lastErr,
		}).Error; err != nil {
		return err
	}
	return nil
}

func (r *outboxEntryRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.OutboxEntry{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *outboxEntryRepo) CountPending(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.OutboxEntry{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
