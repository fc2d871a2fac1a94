package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lumo-engine/internal/domain"
)

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, lessonID, unitID uuid.UUID, status domain.SessionStatus, startedAt time.Time) *domain.Session {
	tb.Helper()
	s := &domain.Session{
		ID:             uuid.New(),
		UserID:         userID,
		LessonID:       lessonID,
		UnitID:         unitID,
		Status:         status,
		StartedAt:      startedAt,
		TotalExercises: 2,
	}
	if status == domain.SessionCompleted {
		done := startedAt.Add(10 * time.Minute)
		s.CompletedAt = &done
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID, exerciseID uuid.UUID, isCorrect bool, submittedAt time.Time) *domain.ExerciseAttempt {
	tb.Helper()
	a := &domain.ExerciseAttempt{
		ID:           uuid.New(),
		SessionID:    sessionID,
		ExerciseID:   exerciseID,
		ExerciseType: "multiple_choice",
	}
	answer := domain.AnswerPayload{
		Kind:           domain.AnswerMultipleChoice,
		MultipleChoice: &domain.MultipleChoiceAnswer{Selected: "a"},
	}
	if err := a.AppendRevision(answer, isCorrect, 30, submittedAt); err != nil {
		tb.Fatalf("seed attempt revision: %v", err)
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}

func SeedSummary(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, unitID, lessonID uuid.UUID, completedAt time.Time, stats map[uuid.UUID]domain.ObjectiveTally) *domain.SessionOutcomeSummary {
	tb.Helper()
	s := &domain.SessionOutcomeSummary{
		SessionID:   uuid.New(),
		UserID:      userID,
		UnitID:      unitID,
		LessonID:    lessonID,
		CompletedAt: completedAt,
	}
	if err := s.SetStats(stats); err != nil {
		tb.Fatalf("seed summary stats: %v", err)
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed summary: %v", err)
	}
	return s
}

// PackageFixture builds a two-exercise lesson package with both exercises
// tagged to the same objective.
func PackageFixture(lessonID, unitID, loID uuid.UUID, exerciseIDs ...uuid.UUID) *domain.LessonPackage {
	exercises := make([]domain.PackagedExercise, 0, len(exerciseIDs))
	for _, id := range exerciseIDs {
		exercises = append(exercises, domain.PackagedExercise{
			ID:          id,
			ObjectiveID: loID,
			Type:        "multiple_choice",
		})
	}
	return &domain.LessonPackage{
		LessonID:  lessonID,
		UnitID:    unitID,
		Title:     "fixture lesson",
		Version:   1,
		Exercises: exercises,
		Objectives: []domain.LearningObjective{
			{ID: loID, Title: "fixture objective", Description: "seeded"},
		},
	}
}
