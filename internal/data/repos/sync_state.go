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

type SyncStateRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.SyncState, error)
	Upsert(ctx context.Context, tx *gorm.DB, state *domain.SyncState) error
}

type syncStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSyncStateRepo(db *gorm.DB, baseLog *logger.Logger) SyncStateRepo {
	repoLog := baseLog.With("repo", "SyncStateRepo")
	return &syncStateRepo{db: db, log: repoLog}
}

func (r *syncStateRepo) Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.SyncState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil, apperr.ErrNotFound
	}

	var result domain.SyncState
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *syncStateRepo) Upsert(ctx context.Context, tx *gorm.DB, state *domain.SyncState) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if state == nil || state.UserID == uuid.Nil {
		return apperr.Validation("sync state user id required")
	}
	state.UpdatedAt = time.Now().UTC()

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(state).Error; err != nil {
		return err
	}
	return nil
}
