package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

type OutcomeSummaryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, summary *domain.SessionOutcomeSummary) error
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*domain.SessionOutcomeSummary, error)
	ListByUnit(ctx context.Context, tx *gorm.DB, userID, unitID uuid.UUID) ([]*domain.SessionOutcomeSummary, error)
	ListByLesson(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) ([]*domain.SessionOutcomeSummary, error)
}

type outcomeSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOutcomeSummaryRepo(db *gorm.DB, baseLog *logger.Logger) OutcomeSummaryRepo {
	repoLog := baseLog.With("repo", "OutcomeSummaryRepo")
	return &outcomeSummaryRepo{db: db, log: repoLog}
}

// Create is insert-only: a summary already written for the session wins and
// the new write is silently dropped. That keeps summaries immutable and a
// completion retry from clobbering the original evidence.
func (r *outcomeSummaryRepo) Create(ctx context.Context, tx *gorm.DB, summary *domain.SessionOutcomeSummary) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if summary == nil || summary.SessionID == uuid.Nil {
		return apperr.Validation("summary session id required")
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(summary).Error; err != nil {
		return err
	}
	return nil
}

func (r *outcomeSummaryRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*domain.SessionOutcomeSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if sessionID == uuid.Nil {
		return nil, apperr.ErrNotFound
	}

	var result domain.SessionOutcomeSummary
	if err := transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *outcomeSummaryRepo) ListByUnit(ctx context.Context, tx *gorm.DB, userID, unitID uuid.UUID) ([]*domain.SessionOutcomeSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.SessionOutcomeSummary
	if userID == uuid.Nil || unitID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND unit_id = ?", userID, unitID).
		Order("completed_at ASC, session_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *outcomeSummaryRepo) ListByLesson(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) ([]*domain.SessionOutcomeSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.SessionOutcomeSummary
	if userID == uuid.Nil || lessonID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Order("completed_at ASC, session_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
