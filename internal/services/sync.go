package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/lumo-engine/internal/clients/remote"
	"github.com/yungbote/lumo-engine/internal/data/repos"
	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/outbox"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
	"github.com/yungbote/lumo-engine/internal/realtime"
)

// RemoteGateway is the slice of the platform client the sync engine needs.
type RemoteGateway interface {
	PushOutboxEntry(ctx context.Context, entry *domain.OutboxEntry) (outbox.Outcome, error)
	PullSessions(ctx context.Context, userID uuid.UUID) ([]remote.Session, error)
}

type SyncReport struct {
	At      time.Time         `json:"at"`
	Result  domain.SyncResult `json:"result"`
	Drain   outbox.DrainStats `json:"drain"`
	Pulled  int               `json:"pulled"`
	Pending int               `json:"pending"`
	Error   string            `json:"error,omitempty"`
}

type SyncStatus struct {
	PendingWrites  int               `json:"pending_writes"`
	LastAttemptAt  *time.Time        `json:"last_attempt_at,omitempty"`
	LastResult     domain.SyncResult `json:"last_result"`
	LastError      string            `json:"last_error,omitempty"`
	PulledSessions int               `json:"pulled_sessions"`
	NextScheduled  *time.Time        `json:"next_scheduled_at,omitempty"`
}

// SyncService reconciles local truth with server truth. Drain always
// precedes pull, so a completion finished locally cannot be overwritten by
// a stale server read that has not seen it yet.
type SyncService interface {
	DrainOutbox(ctx context.Context) (outbox.DrainStats, error)
	PullSessions(ctx context.Context, userID uuid.UUID) (int, error)
	RunCycle(ctx context.Context, userID uuid.UUID) (*SyncReport, error)
	Status(ctx context.Context, userID uuid.UUID) (*SyncStatus, error)
	StartWorker(ctx context.Context, userID uuid.UUID, interval time.Duration)
	SetNextRunFn(fn func() *time.Time)
}

type syncService struct {
	db        *gorm.DB
	log       *logger.Logger
	queue     outbox.Queue
	gateway   RemoteGateway
	sessions  repos.SessionRepo
	syncState repos.SyncStateRepo
	hub       *realtime.Hub
	tracer    trace.Tracer
	nextRunAt func() *time.Time
}

func NewSyncService(
	db *gorm.DB,
	baseLog *logger.Logger,
	queue outbox.Queue,
	gateway RemoteGateway,
	sessions repos.SessionRepo,
	syncState repos.SyncStateRepo,
	hub *realtime.Hub,
) SyncService {
	return &syncService{
		db:        db,
		log:       baseLog.With("service", "SyncService"),
		queue:     queue,
		gateway:   gateway,
		sessions:  sessions,
		syncState: syncState,
		hub:       hub,
		tracer:    otel.Tracer("lumo-engine/sync"),
	}
}

// SetNextRunFn lets the scheduler report when the next cycle is due so it
// shows up in Status.
func (s *syncService) SetNextRunFn(fn func() *time.Time) { s.nextRunAt = fn }

func (s *syncService) DrainOutbox(ctx context.Context) (outbox.DrainStats, error) {
	return s.queue.Drain(ctx, func(ctx context.Context, entry *domain.OutboxEntry) (outbox.Outcome, error) {
		return s.gateway.PushOutboxEntry(ctx, entry)
	})
}

// PullSessions maps server rows into local sessions under the "more
// terminal wins" rule: a pull only overwrites the local copy when the
// server status outranks it, so a Completed session is never demoted.
func (s *syncService) PullSessions(ctx context.Context, userID uuid.UUID) (int, error) {
	rows, err := s.gateway.PullSessions(ctx, userID)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, row := range rows {
		session, ok := s.mapRemoteSession(row)
		if !ok {
			s.log.Warn("skipping malformed remote session", "remote_id", row.ID)
			continue
		}

		local, err := s.sessions.GetByID(ctx, nil, session.ID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return applied, apperr.Storage("load session for reconcile", err)
		}
		if local != nil && session.Status.Rank() <= local.Status.Rank() {
			continue
		}
		if err := s.sessions.Upsert(ctx, nil, session); err != nil {
			return applied, apperr.Storage("reconcile session write", err)
		}
		applied++
	}
	return applied, nil
}

func (s *syncService) mapRemoteSession(row remote.Session) (*domain.Session, bool) {
	status := domain.SessionStatus(row.Status)
	if row.ID == uuid.Nil || !status.Valid() {
		return nil, false
	}
	return &domain.Session{
		ID:                   row.ID,
		UserID:               row.UserID,
		LessonID:             row.LessonID,
		UnitID:               row.UnitID,
		Status:               status,
		StartedAt:            row.StartedAt,
		CompletedAt:          row.CompletedAt,
		CurrentExerciseIndex: row.CurrentExerciseIndex,
		TotalExercises:       row.TotalExercises,
		ProgressPercentage:   row.ProgressPercentage,
	}, true
}

func (s *syncService) RunCycle(ctx context.Context, userID uuid.UUID) (*SyncReport, error) {
	ctx, span := s.tracer.Start(ctx, "sync.cycle")
	defer span.End()

	report := &SyncReport{At: time.Now().UTC(), Result: domain.SyncOK}

	drain, err := s.DrainOutbox(ctx)
	report.Drain = drain
	if err != nil {
		report.Result = domain.SyncFailed
		report.Error = err.Error()
		s.persistState(ctx, userID, report)
		return report, err
	}

	if drain.Aborted {
		// Offline short-circuit: skip the pull, it would only time out too.
		report.Result = domain.SyncOffline
	} else {
		pulled, err := s.PullSessions(ctx, userID)
		report.Pulled = pulled
		switch {
		case err == nil:
			if drain.Retried > 0 {
				report.Result = domain.SyncPartial
			}
		case apperr.IsTransient(err):
			report.Result = domain.SyncOffline
			report.Error = err.Error()
		default:
			report.Result = domain.SyncFailed
			report.Error = err.Error()
		}
	}

	if pending, err := s.queue.PendingCount(ctx); err == nil {
		report.Pending = pending
	}

	span.SetAttributes(
		attribute.String("sync.result", string(report.Result)),
		attribute.Int("sync.delivered", drain.Delivered),
		attribute.Int("sync.pulled", report.Pulled),
		attribute.Int("sync.pending", report.Pending),
	)

	s.persistState(ctx, userID, report)
	s.log.Debug("sync cycle finished",
		"result", report.Result, "delivered", drain.Delivered,
		"retried", drain.Retried, "pulled", report.Pulled, "pending", report.Pending)
	return report, nil
}

func (s *syncService) persistState(ctx context.Context, userID uuid.UUID, report *SyncReport) {
	at := report.At
	state := &domain.SyncState{
		UserID:         userID,
		LastAttemptAt:  &at,
		LastResult:     report.Result,
		LastError:      report.Error,
		PendingWrites:  report.Pending,
		PulledSessions: report.Pulled,
	}
	if err := s.syncState.Upsert(ctx, nil, state); err != nil {
		s.log.Warn("persist sync state failed", "error", err)
		return
	}
	s.hub.Publish(userID, realtime.Message{Event: realtime.EventSyncStateChanged, Data: state})
}

func (s *syncService) Status(ctx context.Context, userID uuid.UUID) (*SyncStatus, error) {
	status := &SyncStatus{LastResult: domain.SyncNever}

	state, err := s.syncState.Get(ctx, nil, userID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Storage("load sync state", err)
	}
	if state != nil {
		status.LastAttemptAt = state.LastAttemptAt
		status.LastResult = state.LastResult
		status.LastError = state.LastError
		status.PulledSessions = state.PulledSessions
	}

	pending, err := s.queue.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	status.PendingWrites = pending

	if s.nextRunAt != nil {
		status.NextScheduled = s.nextRunAt()
	}
	return status, nil
}

// StartWorker runs cycles on a plain ticker. Production scheduling lives in
// the scheduler service; this is the dependency-free fallback.
func (s *syncService) StartWorker(ctx context.Context, userID uuid.UUID, interval time.Duration) {
	if interval <= 0 {
		interval = 45 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.RunCycle(ctx, userID); err != nil {
					s.log.Warn("scheduled sync cycle failed", "error", err)
				}
			}
		}
	}()
}
