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

// SessionFilter narrows ListByUser. Nil fields are ignored.
type SessionFilter struct {
	Status   *domain.SessionStatus
	LessonID *uuid.UUID
	UnitID   *uuid.UUID
	Limit    int
}

type SessionRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, session *domain.Session) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Session, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter SessionFilter) ([]*domain.Session, error)
	ListByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) ([]*domain.Session, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	ListCompletedWithoutSummary(ctx context.Context, tx *gorm.DB) ([]*domain.Session, error)
	ListStaleActive(ctx context.Context, tx *gorm.DB, before time.Time) ([]*domain.Session, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	repoLog := baseLog.With("repo", "SessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

func (r *sessionRepo) Upsert(ctx context.Context, tx *gorm.DB, session *domain.Session) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if session == nil || session.ID == uuid.Nil {
		return apperr.Validation("session id required")
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(session).Error; err != nil {
		return err
	}
	return nil
}

func (r *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, apperr.ErrNotFound
	}

	var result domain.Session
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *sessionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter SessionFilter) ([]*domain.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Session
	if userID == uuid.Nil {
		return results, nil
	}

	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.LessonID != nil {
		q = q.Where("lesson_id = ?", *filter.LessonID)
	}
	if filter.UnitID != nil {
		q = q.Where("unit_id = ?", *filter.UnitID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Order("started_at DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionRepo) ListByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) ([]*domain.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Session
	if userID == uuid.Nil || lessonID == uuid.Nil {
		return results, nil
	}

	// Ascending (started_at, id) so replay folds are well-defined.
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Order("started_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}
	return nil
}

func (r *sessionRepo) ListCompletedWithoutSummary(ctx context.Context, tx *gorm.DB) ([]*domain.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Session
	if err := transaction.WithContext(ctx).
		Where("status = ?", domain.SessionCompleted).
		Where("id NOT IN (?)", transaction.Model(&domain.SessionOutcomeSummary{}).Select("session_id")).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionRepo) ListStaleActive(ctx context.Context, tx *gorm.DB, before time.Time) ([]*domain.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Session
	if err := transaction.WithContext(ctx).
		Where("status IN ?", []domain.SessionStatus{domain.SessionActive, domain.SessionPaused}).
		Where("updated_at < ?", before).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
