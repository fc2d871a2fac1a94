package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lumo-engine/internal/data/repos/testutil"
	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
)

func TestSessionRepoUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	repo := NewSessionRepo(gdb, testutil.Logger(t))

	userID := uuid.New()
	seeded := testutil.SeedSession(t, ctx, gdb, userID, uuid.New(), uuid.New(), domain.SessionActive, time.Now().UTC())

	got, err := repo.GetByID(ctx, nil, seeded.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != userID || got.Status != domain.SessionActive {
		t.Fatalf("unexpected session: %+v", got)
	}

	// Upsert with the same id overwrites in place.
	seeded.Status = domain.SessionPaused
	if err := repo.Upsert(ctx, nil, seeded); err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	got, err = repo.GetByID(ctx, nil, seeded.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.SessionPaused {
		t.Fatalf("status after upsert: want=%q got=%q", domain.SessionPaused, got.Status)
	}
}

func TestSessionRepoGetByIDNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(testutil.DB(t), testutil.Logger(t))

	if _, err := repo.GetByID(ctx, nil, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSessionRepoListByUserFilters(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	repo := NewSessionRepo(gdb, testutil.Logger(t))

	userID := uuid.New()
	lessonID := uuid.New()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	older := testutil.SeedSession(t, ctx, gdb, userID, lessonID, uuid.New(), domain.SessionCompleted, base)
	newer := testutil.SeedSession(t, ctx, gdb, userID, lessonID, uuid.New(), domain.SessionActive, base.Add(time.Hour))
	testutil.SeedSession(t, ctx, gdb, userID, uuid.New(), uuid.New(), domain.SessionActive, base.Add(2*time.Hour))
	testutil.SeedSession(t, ctx, gdb, uuid.New(), lessonID, uuid.New(), domain.SessionActive, base)

	all, err := repo.ListByUser(ctx, nil, userID, SessionFilter{LessonID: &lessonID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("lesson filter: want=2 got=%d", len(all))
	}
	// Newest first.
	if all[0].ID != newer.ID || all[1].ID != older.ID {
		t.Fatalf("ordering: got %v then %v", all[0].ID, all[1].ID)
	}

	active := domain.SessionActive
	onlyActive, err := repo.ListByUser(ctx, nil, userID, SessionFilter{Status: &active, LessonID: &lessonID})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(onlyActive) != 1 || onlyActive[0].ID != newer.ID {
		t.Fatalf("status filter: %+v", onlyActive)
	}
}

func TestSessionRepoListByUserAndLessonAscending(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	repo := NewSessionRepo(gdb, testutil.Logger(t))

	userID := uuid.New()
	lessonID := uuid.New()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	first := testutil.SeedSession(t, ctx, gdb, userID, lessonID, uuid.New(), domain.SessionCompleted, base)
	second := testutil.SeedSession(t, ctx, gdb, userID, lessonID, uuid.New(), domain.SessionCompleted, base.Add(time.Hour))

	got, err := repo.ListByUserAndLesson(ctx, nil, userID, lessonID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("replay order broken: %+v", got)
	}
}

func TestSessionRepoListCompletedWithoutSummary(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	repo := NewSessionRepo(gdb, testutil.Logger(t))
	summaries := NewOutcomeSummaryRepo(gdb, testutil.Logger(t))

	userID := uuid.New()
	now := time.Now().UTC()

	summarized := testutil.SeedSession(t, ctx, gdb, userID, uuid.New(), uuid.New(), domain.SessionCompleted, now.Add(-time.Hour))
	orphan := testutil.SeedSession(t, ctx, gdb, userID, uuid.New(), uuid.New(), domain.SessionCompleted, now)
	testutil.SeedSession(t, ctx, gdb, userID, uuid.New(), uuid.New(), domain.SessionActive, now)

	summary := &domain.SessionOutcomeSummary{
		SessionID:   summarized.ID,
		UserID:      userID,
		UnitID:      summarized.UnitID,
		LessonID:    summarized.LessonID,
		CompletedAt: now,
	}
	if err := summaries.Create(ctx, nil, summary); err != nil {
		t.Fatalf("create summary: %v", err)
	}

	got, err := repo.ListCompletedWithoutSummary(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != orphan.ID {
		t.Fatalf("want only the orphaned completion, got %+v", got)
	}
}

func TestSessionRepoListStaleActive(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	repo := NewSessionRepo(gdb, testutil.Logger(t))

	userID := uuid.New()
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	stale := cutoff.Add(-time.Hour)

	old := testutil.SeedSession(t, ctx, gdb, userID, uuid.New(), uuid.New(), domain.SessionActive, stale)
	oldPaused := testutil.SeedSession(t, ctx, gdb, userID, uuid.New(), uuid.New(), domain.SessionPaused, stale)
	oldDone := testutil.SeedSession(t, ctx, gdb, userID, uuid.New(), uuid.New(), domain.SessionCompleted, stale)
	fresh := testutil.SeedSession(t, ctx, gdb, userID, uuid.New(), uuid.New(), domain.SessionActive, time.Now().UTC())

	// Seeding sets updated_at to now; push the stale ones back explicitly.
	for _, s := range []*domain.Session{old, oldPaused, oldDone} {
		if err := gdb.Model(&domain.Session{}).Where("id = ?", s.ID).
			Update("updated_at", stale).Error; err != nil {
			t.Fatalf("backdate session: %v", err)
		}
	}

	got, err := repo.ListStaleActive(ctx, nil, cutoff)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := map[uuid.UUID]bool{}
	for _, s := range got {
		ids[s.ID] = true
	}
	if len(got) != 2 || !ids[old.ID] || !ids[oldPaused.ID] {
		t.Fatalf("stale set wrong: %+v", got)
	}
	if ids[oldDone.ID] || ids[fresh.ID] {
		t.Fatal("terminal or fresh sessions must not be flagged stale")
	}
}
