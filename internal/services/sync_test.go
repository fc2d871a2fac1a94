package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/lumo-engine/internal/clients/remote"
	"github.com/yungbote/lumo-engine/internal/data/repos"
	"github.com/yungbote/lumo-engine/internal/data/repos/testutil"
	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/outbox"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/realtime"
)

type fakeGateway struct {
	pushOutcome outbox.Outcome
	pushErr     error
	pulled      []remote.Session
	pullErr     error
	pullCalls   int
}

func (f *fakeGateway) PushOutboxEntry(_ context.Context, _ *domain.OutboxEntry) (outbox.Outcome, error) {
	return f.pushOutcome, f.pushErr
}

func (f *fakeGateway) PullSessions(_ context.Context, _ uuid.UUID) ([]remote.Session, error) {
	f.pullCalls++
	return f.pulled, f.pullErr
}

type syncHarness struct {
	db       *gorm.DB
	svc      SyncService
	gateway  *fakeGateway
	queue    outbox.Queue
	sessions repos.SessionRepo
	states   repos.SyncStateRepo
	hub      *realtime.Hub
}

func newSyncHarness(t *testing.T) *syncHarness {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	sessionRepo := repos.NewSessionRepo(gdb, log)
	stateRepo := repos.NewSyncStateRepo(gdb, log)
	queue := outbox.NewQueue(gdb, log, repos.NewOutboxEntryRepo(gdb, log), outbox.DefaultConfig())
	gw := &fakeGateway{pushOutcome: outbox.OutcomeDelivered}
	hub := realtime.NewHub(log)

	return &syncHarness{
		db:       gdb,
		svc:      NewSyncService(gdb, log, queue, gw, sessionRepo, stateRepo, hub),
		gateway:  gw,
		queue:    queue,
		sessions: sessionRepo,
		states:   stateRepo,
		hub:      hub,
	}
}

func (h *syncHarness) enqueue(t *testing.T, n int) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Minute)
	for i := 0; i < n; i++ {
		entry := &domain.OutboxEntry{
			IdempotencyKey: uuid.NewString(),
			Endpoint:       "/sessions",
			Method:         http.MethodPost,
			Payload:        datatypes.JSON([]byte(`{}`)),
			EnqueuedAt:     base.Add(time.Duration(i) * time.Second),
		}
		if err := h.queue.Enqueue(context.Background(), nil, entry); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
}

func remoteSessionFixture(id, userID uuid.UUID, status domain.SessionStatus) remote.Session {
	return remote.Session{
		ID:                 id,
		UserID:             userID,
		LessonID:           uuid.New(),
		UnitID:             uuid.New(),
		Status:             string(status),
		StartedAt:          time.Now().UTC().Add(-time.Hour),
		TotalExercises:     3,
		ProgressPercentage: 100,
	}
}

func TestPullSessionsMoreTerminalWins(t *testing.T) {
	ctx := context.Background()
	h := newSyncHarness(t)
	userID := uuid.New()
	now := time.Now().UTC()

	promotable := testutil.SeedSession(t, ctx, h.db, userID, uuid.New(), uuid.New(), domain.SessionActive, now.Add(-time.Hour))
	finished := testutil.SeedSession(t, ctx, h.db, userID, uuid.New(), uuid.New(), domain.SessionCompleted, now.Add(-2*time.Hour))
	newcomer := uuid.New()

	h.gateway.pulled = []remote.Session{
		// Server learned this one completed on another device.
		remoteSessionFixture(promotable.ID, userID, domain.SessionCompleted),
		// Stale server copy must not demote the local completion.
		remoteSessionFixture(finished.ID, userID, domain.SessionActive),
		// Session from another device, unknown locally.
		remoteSessionFixture(newcomer, userID, domain.SessionCompleted),
		// Malformed rows are skipped without failing the pull.
		{ID: uuid.Nil, Status: "active"},
		{ID: uuid.New(), Status: "exploded"},
	}

	applied, err := h.svc.PullSessions(ctx, userID)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied: want=2 got=%d", applied)
	}

	got, err := h.sessions.GetByID(ctx, nil, promotable.ID)
	if err != nil {
		t.Fatalf("load promotable: %v", err)
	}
	if got.Status != domain.SessionCompleted {
		t.Fatalf("promotable status: %q", got.Status)
	}

	got, err = h.sessions.GetByID(ctx, nil, finished.ID)
	if err != nil {
		t.Fatalf("load finished: %v", err)
	}
	if got.Status != domain.SessionCompleted {
		t.Fatalf("local completion was demoted to %q", got.Status)
	}

	if _, err := h.sessions.GetByID(ctx, nil, newcomer); err != nil {
		t.Fatalf("newcomer not inserted: %v", err)
	}
}

func TestRunCycleOfflineSkipsPull(t *testing.T) {
	ctx := context.Background()
	h := newSyncHarness(t)
	userID := uuid.New()

	h.enqueue(t, 4)
	h.gateway.pushOutcome = outbox.OutcomeRetryableFailure
	h.gateway.pushErr = apperr.Transient(errors.New("dial tcp: no route to host"))

	listener := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(listener)

	report, err := h.svc.RunCycle(ctx, userID)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Result != domain.SyncOffline {
		t.Fatalf("result: want=%q got=%q", domain.SyncOffline, report.Result)
	}
	if !report.Drain.Aborted {
		t.Fatal("drain must report the offline abort")
	}
	if h.gateway.pullCalls != 0 {
		t.Fatalf("pull must be skipped while offline, called %d times", h.gateway.pullCalls)
	}
	if report.Pending != 4 {
		t.Fatalf("pending: want=4 got=%d", report.Pending)
	}

	// The cycle outcome was persisted and broadcast.
	state, err := h.states.Get(ctx, nil, userID)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if state.LastResult != domain.SyncOffline || state.PendingWrites != 4 {
		t.Fatalf("persisted state: %+v", state)
	}
	events := drainEvents(listener)
	if len(events) != 1 || events[0].Event != realtime.EventSyncStateChanged {
		t.Fatalf("events: %+v", events)
	}
}

func TestRunCycleDrainsBeforePull(t *testing.T) {
	ctx := context.Background()
	h := newSyncHarness(t)
	userID := uuid.New()

	h.enqueue(t, 2)
	h.gateway.pulled = []remote.Session{remoteSessionFixture(uuid.New(), userID, domain.SessionCompleted)}

	report, err := h.svc.RunCycle(ctx, userID)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Result != domain.SyncOK {
		t.Fatalf("result: want=%q got=%q", domain.SyncOK, report.Result)
	}
	if report.Drain.Delivered != 2 || report.Pulled != 1 || report.Pending != 0 {
		t.Fatalf("report: %+v", report)
	}
	if h.gateway.pullCalls != 1 {
		t.Fatalf("pull calls: %d", h.gateway.pullCalls)
	}
}

func TestRunCyclePartialWhenRetriesRemain(t *testing.T) {
	ctx := context.Background()
	h := newSyncHarness(t)
	userID := uuid.New()

	h.enqueue(t, 1)
	h.gateway.pushOutcome = outbox.OutcomeRetryableFailure
	h.gateway.pushErr = errors.New("503 from server")

	report, err := h.svc.RunCycle(ctx, userID)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Result != domain.SyncPartial {
		t.Fatalf("result: want=%q got=%q", domain.SyncPartial, report.Result)
	}
	if report.Drain.Retried != 1 || report.Pending != 1 {
		t.Fatalf("report: %+v", report)
	}
}

func TestStatusMergesStoredStateAndLiveQueue(t *testing.T) {
	ctx := context.Background()
	h := newSyncHarness(t)
	userID := uuid.New()

	// Before any cycle: never synced, nothing pending.
	status, err := h.svc.Status(ctx, userID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.LastResult != domain.SyncNever || status.PendingWrites != 0 {
		t.Fatalf("initial status: %+v", status)
	}

	h.enqueue(t, 2)
	if _, err := h.svc.RunCycle(ctx, userID); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	next := time.Now().UTC().Add(45 * time.Second)
	h.svc.SetNextRunFn(func() *time.Time { return &next })

	status, err = h.svc.Status(ctx, userID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.LastResult != domain.SyncOK {
		t.Fatalf("last result: %q", status.LastResult)
	}
	if status.LastAttemptAt == nil {
		t.Fatal("last attempt missing")
	}
	if status.NextScheduled == nil || !status.NextScheduled.Equal(next) {
		t.Fatalf("next scheduled: %v", status.NextScheduled)
	}
}
