package outbox

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCompleteSessionKeyStableAcrossRetries(t *testing.T) {
	sessionID := uuid.New()
	completedAt := time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)

	first := CompleteSessionKey(sessionID, completedAt)
	second := CompleteSessionKey(sessionID, completedAt)
	if first != second {
		t.Fatalf("retry produced a different key: %q vs %q", first, second)
	}

	// Same instant in a different zone is still the same key.
	other := CompleteSessionKey(sessionID, completedAt.In(time.FixedZone("X", -5*3600)))
	if first != other {
		t.Fatalf("zone shift changed key: %q vs %q", first, other)
	}
}

func TestKeysDistinguishSessions(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	at := time.Now().UTC()
	if StartSessionKey(a) == StartSessionKey(b) {
		t.Fatal("start keys collided across sessions")
	}
	if CompleteSessionKey(a, at) == CompleteSessionKey(b, at) {
		t.Fatal("complete keys collided across sessions")
	}
	if CompleteSessionKey(a, at) == CompleteSessionKey(a, at.Add(time.Millisecond)) {
		t.Fatal("complete keys collided across completion times")
	}
}
