package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/lumo-engine/internal/clients/content"
	"github.com/yungbote/lumo-engine/internal/data/repos"
	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/outbox"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
	"github.com/yungbote/lumo-engine/internal/realtime"
)

type RecordAttemptInput struct {
	SessionID        uuid.UUID
	ExerciseID       uuid.UUID
	ExerciseType     string
	Answer           domain.AnswerPayload
	IsCorrect        bool
	TimeSpentSeconds int
}

// SessionService is the single authority for session state transitions. It
// translates learner actions into store writes and outbox entries; it never
// talks to the network itself, so every operation succeeds offline.
type SessionService interface {
	Start(ctx context.Context, userID, lessonID, unitID uuid.UUID) (*domain.Session, error)
	CanStart(ctx context.Context, userID, lessonID uuid.UUID) (bool, error)
	RecordAttempt(ctx context.Context, input RecordAttemptInput) (*domain.ExerciseAttempt, error)
	Complete(ctx context.Context, sessionID uuid.UUID) (*domain.SessionResults, error)
	Pause(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	Resume(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filter repos.SessionFilter) ([]*domain.Session, error)
	RecoverPendingCompletions(ctx context.Context) (int, error)
	AbandonStale(ctx context.Context, cutoff time.Time) (int, error)
}

type sessionService struct {
	db        *gorm.DB
	log       *logger.Logger
	sessions  repos.SessionRepo
	attempts  repos.ExerciseAttemptRepo
	summaries repos.OutcomeSummaryRepo
	queue     outbox.Queue
	content   content.Client
	hub       *realtime.Hub
}

func NewSessionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessions repos.SessionRepo,
	attempts repos.ExerciseAttemptRepo,
	summaries repos.OutcomeSummaryRepo,
	queue outbox.Queue,
	contentClient content.Client,
	hub *realtime.Hub,
) SessionService {
	return &sessionService{
		db:        db,
		log:       baseLog.With("service", "SessionService"),
		sessions:  sessions,
		attempts:  attempts,
		summaries: summaries,
		queue:     queue,
		content:   contentClient,
		hub:       hub,
	}
}

func (s *sessionService) Start(ctx context.Context, userID, lessonID, unitID uuid.UUID) (*domain.Session, error) {
	if userID == uuid.Nil || lessonID == uuid.Nil || unitID == uuid.Nil {
		return nil, apperr.Validation("user, lesson and unit ids required")
	}

	pkg, err := s.content.LessonPackage(ctx, lessonID)
	if err != nil {
		return nil, apperr.Validation("lesson package unavailable: %v", err)
	}
	if pkg.UnitID != unitID {
		return nil, apperr.Validation("lesson %s does not belong to unit %s", lessonID, unitID)
	}
	if len(pkg.Exercises) == 0 {
		return nil, apperr.Validation("lesson %s has no exercises", lessonID)
	}

	// Concurrent starts for the same (user, lesson) are not deduplicated
	// here. The caller checks CanStart; a lost race leaves a harmless
	// orphaned session that the server reconciles by id.
	now := time.Now().UTC()
	session := &domain.Session{
		ID:             uuid.New(),
		UserID:         userID,
		LessonID:       lessonID,
		UnitID:         unitID,
		Status:         domain.SessionActive,
		StartedAt:      now,
		TotalExercises: len(pkg.Exercises),
	}

	payload, err := json.Marshal(map[string]any{
		"session_id": session.ID,
		"lesson_id":  lessonID,
		"unit_id":    unitID,
		"user_id":    userID,
		"started_at": now,
	})
	if err != nil {
		return nil, fmt.Errorf("encode start payload: %w", err)
	}
	entry := &domain.OutboxEntry{
		IdempotencyKey: outbox.StartSessionKey(session.ID),
		Endpoint:       "/sessions",
		Method:         http.MethodPost,
		Payload:        datatypes.JSON(payload),
		EnqueuedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessions.Upsert(ctx, tx, session); err != nil {
			return apperr.Storage("start session write", err)
		}
		return s.queue.Enqueue(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("session started", "session_id", session.ID, "user_id", userID, "lesson_id", lessonID)
	s.hub.Publish(userID, realtime.Message{Event: realtime.EventSessionStarted, Data: session})
	return session, nil
}

func (s *sessionService) CanStart(ctx context.Context, userID, lessonID uuid.UUID) (bool, error) {
	active := domain.SessionActive
	existing, err := s.sessions.ListByUser(ctx, nil, userID, repos.SessionFilter{
		Status:   &active,
		LessonID: &lessonID,
		Limit:    1,
	})
	if err != nil {
		return false, apperr.Storage("list active sessions", err)
	}
	return len(existing) == 0, nil
}

func (s *sessionService) RecordAttempt(ctx context.Context, input RecordAttemptInput) (*domain.ExerciseAttempt, error) {
	if input.SessionID == uuid.Nil || input.ExerciseID == uuid.Nil {
		return nil, apperr.Validation("session and exercise ids required")
	}

	session, err := s.sessions.GetByID(ctx, nil, input.SessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage("load session", err)
	}
	if session.Status != domain.SessionActive {
		return nil, fmt.Errorf("record attempt on %s session: %w", session.Status, apperr.ErrSessionNotActive)
	}

	now := time.Now().UTC()
	var attempt *domain.ExerciseAttempt
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.attempts.GetBySessionAndExercise(ctx, tx, input.SessionID, input.ExerciseID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return apperr.Storage("load attempt", err)
		}
		if existing == nil {
			existing = &domain.ExerciseAttempt{
				ID:           uuid.New(),
				SessionID:    input.SessionID,
				ExerciseID:   input.ExerciseID,
				ExerciseType: input.ExerciseType,
			}
		}
		if err := existing.AppendRevision(input.Answer, input.IsCorrect, input.TimeSpentSeconds, now); err != nil {
			return apperr.Validation("invalid answer payload: %v", err)
		}
		if err := s.attempts.UpsertForExercise(ctx, tx, existing); err != nil {
			return apperr.Storage("write attempt", err)
		}

		attempted, err := s.attempts.CountBySession(ctx, tx, input.SessionID)
		if err != nil {
			return apperr.Storage("count attempts", err)
		}
		progress := 0.0
		if session.TotalExercises > 0 {
			progress = float64(attempted) / float64(session.TotalExercises) * 100
		}
		index := int(attempted)
		if index > session.TotalExercises {
			index = session.TotalExercises
		}
		if err := s.sessions.UpdateFields(ctx, tx, session.ID, map[string]any{
			"progress_percentage":    progress,
			"current_exercise_index": index,
			"updated_at":             now,
		}); err != nil {
			return apperr.Storage("update session progress", err)
		}

		attempt = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

func (s *sessionService) Complete(ctx context.Context, sessionID uuid.UUID) (*domain.SessionResults, error) {
	session, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage("load session", err)
	}

	switch session.Status {
	case domain.SessionActive:
		return s.completeAt(ctx, session, time.Now().UTC())
	case domain.SessionCompleted:
		// Retried completion. With a durable summary this is a pure read;
		// without one we are inside the crash window and re-derive from
		// whatever attempts survive, reusing the persisted completion time
		// so the idempotency key comes out identical.
		summary, err := s.summaries.GetBySessionID(ctx, nil, sessionID)
		if err == nil {
			return s.resultsFromSummary(session, summary)
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Storage("load summary", err)
		}
		completedAt := session.UpdatedAt
		if session.CompletedAt != nil {
			completedAt = *session.CompletedAt
		}
		return s.completeAt(ctx, session, completedAt)
	default:
		return nil, apperr.Validation("cannot complete session in status %s", session.Status)
	}
}

func (s *sessionService) completeAt(ctx context.Context, session *domain.Session, completedAt time.Time) (*domain.SessionResults, error) {
	pkg, err := s.content.LessonPackage(ctx, session.LessonID)
	if err != nil {
		return nil, apperr.Validation("lesson package unavailable: %v", err)
	}
	exerciseObjectives := pkg.ExerciseObjectives()

	var results *domain.SessionResults
	var stats map[uuid.UUID]domain.ObjectiveTally
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.attempts.ListBySession(ctx, tx, session.ID)
		if err != nil {
			return apperr.Storage("list attempts", err)
		}

		total := session.TotalExercises
		if total == 0 {
			total = len(pkg.Exercises)
		}
		correct := 0
		totalTime := 0
		stats = make(map[uuid.UUID]domain.ObjectiveTally)
		updates := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			if row.IsCorrect {
				correct++
			}
			totalTime += row.TotalTimeSpent()
			if loID, ok := exerciseObjectives[row.ExerciseID]; ok {
				tally := stats[loID]
				tally.Attempted++
				if row.IsCorrect {
					tally.Correct++
				}
				stats[loID] = tally
			}
			updates = append(updates, map[string]any{
				"exercise_id":        row.ExerciseID,
				"exercise_type":      row.ExerciseType,
				"user_answer":        json.RawMessage(row.Answer),
				"is_correct":         row.IsCorrect,
				"time_spent_seconds": row.TimeSpentSeconds,
			})
		}

		score := 0.0
		if total > 0 {
			score = float64(correct) / float64(total) * 100
		}
		results = &domain.SessionResults{
			SessionID:             session.ID,
			LessonID:              session.LessonID,
			UnitID:                session.UnitID,
			TotalExercises:        total,
			AttemptedExercises:    len(rows),
			CorrectExercises:      correct,
			ScorePercentage:       score,
			Grade:                 domain.GradeFor(score),
			TotalTimeSpentSeconds: totalTime,
			CompletedAt:           completedAt,
		}

		summary := &domain.SessionOutcomeSummary{
			SessionID:             session.ID,
			UserID:                session.UserID,
			UnitID:                session.UnitID,
			LessonID:              session.LessonID,
			CompletedAt:           completedAt,
			TotalTimeSpentSeconds: totalTime,
		}
		if err := summary.SetStats(stats); err != nil {
			return err
		}
		if err := s.summaries.Create(ctx, tx, summary); err != nil {
			return apperr.Storage("write summary", err)
		}

		progress := 0.0
		if total > 0 {
			progress = float64(len(rows)) / float64(total) * 100
		}
		if err := s.sessions.UpdateFields(ctx, tx, session.ID, map[string]any{
			"status":              domain.SessionCompleted,
			"completed_at":        completedAt,
			"progress_percentage": progress,
			"updated_at":          time.Now().UTC(),
		}); err != nil {
			return apperr.Storage("complete session write", err)
		}

		payload, err := json.Marshal(map[string]any{
			"progress_updates": updates,
			"lesson_id":        session.LessonID,
		})
		if err != nil {
			return fmt.Errorf("encode completion payload: %w", err)
		}
		entry := &domain.OutboxEntry{
			IdempotencyKey: outbox.CompleteSessionKey(session.ID, completedAt),
			Endpoint:       fmt.Sprintf("/sessions/%s/complete?user_id=%s", session.ID, session.UserID),
			Method:         http.MethodPost,
			Payload:        datatypes.JSON(payload),
			EnqueuedAt:     time.Now().UTC(),
		}
		return s.queue.Enqueue(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	// Attempt reclamation happens after the summary is durable; a failure
	// here leaves stale rows behind but loses nothing.
	if err := s.attempts.DeleteBySession(ctx, nil, session.ID); err != nil {
		s.log.Warn("attempt reclamation failed", "session_id", session.ID, "error", err)
	}

	s.log.Info("session completed",
		"session_id", session.ID, "user_id", session.UserID,
		"score", results.ScorePercentage, "grade", results.Grade)
	s.hub.Publish(session.UserID, realtime.Message{Event: realtime.EventSessionCompleted, Data: results})
	s.publishCompletedObjectives(session.UserID, pkg, stats)

	return results, nil
}

// publishCompletedObjectives announces objectives this session alone fully
// answered: every tagged exercise in the lesson attempted and correct.
func (s *sessionService) publishCompletedObjectives(userID uuid.UUID, pkg *domain.LessonPackage, stats map[uuid.UUID]domain.ObjectiveTally) {
	perObjective := make(map[uuid.UUID]int)
	for _, ex := range pkg.Exercises {
		if ex.ObjectiveID != uuid.Nil {
			perObjective[ex.ObjectiveID]++
		}
	}
	for loID, tally := range stats {
		total := perObjective[loID]
		if total > 0 && tally.Correct >= total {
			data := map[string]any{"lo_id": loID, "lesson_id": pkg.LessonID}
			if lo, ok := pkg.DeclaredObjective(loID); ok {
				data["title"] = lo.Title
			}
			s.hub.Publish(userID, realtime.Message{Event: realtime.EventObjectiveCompleted, Data: data})
		}
	}
}

// resultsFromSummary rebuilds the scorecard for an already-completed
// session. Total time rides on the summary; the attempted count is
// back-derived from the stored progress percentage, an approximation
// that can drift from the original when the percentage was rounded.
func (s *sessionService) resultsFromSummary(session *domain.Session, summary *domain.SessionOutcomeSummary) (*domain.SessionResults, error) {
	stats, err := summary.Stats()
	if err != nil {
		return nil, err
	}
	correct := 0
	for _, tally := range stats {
		correct += tally.Correct
	}
	total := session.TotalExercises
	attempted := int(math.Round(session.ProgressPercentage * float64(total) / 100))
	score := 0.0
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}
	return &domain.SessionResults{
		SessionID:             session.ID,
		LessonID:              session.LessonID,
		UnitID:                session.UnitID,
		TotalExercises:        total,
		AttemptedExercises:    attempted,
		CorrectExercises:      correct,
		ScorePercentage:       score,
		Grade:                 domain.GradeFor(score),
		TotalTimeSpentSeconds: summary.TotalTimeSpentSeconds,
		CompletedAt:           summary.CompletedAt,
	}, nil
}

func (s *sessionService) Pause(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	return s.flipStatus(ctx, sessionID, domain.SessionActive, domain.SessionPaused)
}

func (s *sessionService) Resume(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage("load session", err)
	}
	if session.Status != domain.SessionPaused {
		return nil, apperr.Validation("cannot resume session in status %s", session.Status)
	}

	// Resuming must not break the one-Active-per-lesson invariant.
	ok, err := s.CanStart(ctx, session.UserID, session.LessonID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Validation("another session is already active for this lesson")
	}

	return s.setStatus(ctx, session, domain.SessionActive)
}

func (s *sessionService) flipStatus(ctx context.Context, sessionID uuid.UUID, from, to domain.SessionStatus) (*domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage("load session", err)
	}
	if session.Status != from {
		if session.Status.Terminal() {
			return nil, fmt.Errorf("session %s: %w", sessionID, apperr.ErrSessionTerminal)
		}
		return nil, apperr.Validation("cannot move session from %s to %s", session.Status, to)
	}
	return s.setStatus(ctx, session, to)
}

func (s *sessionService) setStatus(ctx context.Context, session *domain.Session, to domain.SessionStatus) (*domain.Session, error) {
	now := time.Now().UTC()
	if err := s.sessions.UpdateFields(ctx, nil, session.ID, map[string]any{
		"status":     to,
		"updated_at": now,
	}); err != nil {
		return nil, apperr.Storage("update session status", err)
	}
	session.Status = to
	session.UpdatedAt = now
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage("load session", err)
	}
	return session, nil
}

func (s *sessionService) ListForUser(ctx context.Context, userID uuid.UUID, filter repos.SessionFilter) ([]*domain.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, nil, userID, filter)
	if err != nil {
		return nil, apperr.Storage("list sessions", err)
	}
	return sessions, nil
}

// RecoverPendingCompletions closes the crash window between a session's
// terminal transition and its summary write: any Completed session with no
// summary gets its summary re-derived from surviving attempts and its
// completion entry re-enqueued under the original idempotency key.
func (s *sessionService) RecoverPendingCompletions(ctx context.Context) (int, error) {
	orphans, err := s.sessions.ListCompletedWithoutSummary(ctx, nil)
	if err != nil {
		return 0, apperr.Storage("list unsummarized sessions", err)
	}
	recovered := 0
	for _, session := range orphans {
		completedAt := session.UpdatedAt
		if session.CompletedAt != nil {
			completedAt = *session.CompletedAt
		}
		if _, err := s.completeAt(ctx, session, completedAt); err != nil {
			s.log.Warn("completion recovery failed", "session_id", session.ID, "error", err)
			continue
		}
		recovered++
	}
	if recovered > 0 {
		s.log.Info("recovered pending completions", "count", recovered)
	}
	return recovered, nil
}

// AbandonStale is the janitor policy: sessions untouched since the cutoff
// move to Abandoned. No outbox entry is written; an abandoned orphan
// carries no completion payload for the server to care about.
func (s *sessionService) AbandonStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.sessions.ListStaleActive(ctx, nil, cutoff)
	if err != nil {
		return 0, apperr.Storage("list stale sessions", err)
	}
	abandoned := 0
	for _, session := range stale {
		if _, err := s.setStatus(ctx, session, domain.SessionAbandoned); err != nil {
			s.log.Warn("abandon failed", "session_id", session.ID, "error", err)
			continue
		}
		abandoned++
	}
	if abandoned > 0 {
		s.log.Info("abandoned stale sessions", "count", abandoned)
	}
	return abandoned, nil
}
