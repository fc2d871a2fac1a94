package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/lumo-engine/internal/data/repos/testutil"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func newShareCardHarness(t *testing.T) (*sessionHarness, ShareCardService) {
	t.Helper()
	h := newSessionHarness(t)
	svc, err := NewShareCardService(testutil.Logger(t), h.svc, h.summary, h.content)
	if err != nil {
		t.Fatalf("init share card service: %v", err)
	}
	return h, svc
}

func TestRenderShareCardForCompletedSession(t *testing.T) {
	ctx := context.Background()
	h, cards := newShareCardHarness(t)
	userID := uuid.New()
	lessonID, unitID, _, exercises := h.addLesson(t, 2)

	session, err := h.svc.Start(ctx, userID, lessonID, unitID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := range exercises {
		if _, err := h.svc.RecordAttempt(ctx, RecordAttemptInput{
			SessionID:    session.ID,
			ExerciseID:   exercises[i],
			ExerciseType: "multiple_choice",
			Answer:       mcAnswer("a"),
			IsCorrect:    true,
		}); err != nil {
			t.Fatalf("attempt: %v", err)
		}
	}
	if _, err := h.svc.Complete(ctx, session.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	png, err := cards.Render(ctx, session.ID)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, pngSignature) {
		t.Fatalf("not a PNG, first bytes: %v", png[:min(len(png), 8)])
	}
}

func TestRenderShareCardRejectsUnfinishedSession(t *testing.T) {
	ctx := context.Background()
	h, cards := newShareCardHarness(t)
	userID := uuid.New()
	lessonID, unitID, _, _ := h.addLesson(t, 2)

	session, err := h.svc.Start(ctx, userID, lessonID, unitID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := cards.Render(ctx, session.ID); !apperr.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}
