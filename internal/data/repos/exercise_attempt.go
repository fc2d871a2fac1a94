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

type ExerciseAttemptRepo interface {
	UpsertForExercise(ctx context.Context, tx *gorm.DB, attempt *domain.ExerciseAttempt) error
	GetBySessionAndExercise(ctx context.Context, tx *gorm.DB, sessionID, exerciseID uuid.UUID) (*domain.ExerciseAttempt, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*domain.ExerciseAttempt, error)
	ListBySessions(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]*domain.ExerciseAttempt, error)
	CountBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error)
	DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
}

type exerciseAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExerciseAttemptRepo(db *gorm.DB, baseLog *logger.Logger) ExerciseAttemptRepo {
	repoLog := baseLog.With("repo", "ExerciseAttemptRepo")
	return &exerciseAttemptRepo{db: db, log: repoLog}
}

func (r *exerciseAttemptRepo) UpsertForExercise(ctx context.Context, tx *gorm.DB, attempt *domain.ExerciseAttempt) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if attempt == nil || attempt.SessionID == uuid.Nil || attempt.ExerciseID == uuid.Nil {
		return apperr.Validation("attempt session and exercise ids required")
	}
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "exercise_id"}},
			UpdateAll: true,
		}).
		Create(attempt).Error; err != nil {
		return err
	}
	return nil
}

func (r *exerciseAttemptRepo) GetBySessionAndExercise(ctx context.Context, tx *gorm.DB, sessionID, exerciseID uuid.UUID) (*domain.ExerciseAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if sessionID == uuid.Nil || exerciseID == uuid.Nil {
		return nil, apperr.ErrNotFound
	}

	var result domain.ExerciseAttempt
	if err := transaction.WithContext(ctx).
		Where("session_id = ? AND exercise_id = ?", sessionID, exerciseID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *exerciseAttemptRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*domain.ExerciseAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.ExerciseAttempt
	if sessionID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("submitted_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *exerciseAttemptRepo) ListBySessions(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]*domain.ExerciseAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.ExerciseAttempt
	if len(sessionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Order("submitted_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *exerciseAttemptRepo) CountBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if sessionID == uuid.Nil {
		return 0, nil
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.ExerciseAttempt{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *exerciseAttemptRepo) DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if sessionID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&domain.ExerciseAttempt{}).Error; err != nil {
		return err
	}
	return nil
}
