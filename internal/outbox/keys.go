package outbox

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Idempotency keys are constructed, not random: a crash between deriving an
// operation and enqueuing it re-derives the same key on restart, so the
// re-enqueue collapses onto the pending row instead of duplicating it.

func StartSessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("start-session-%s", sessionID)
}

// CompleteSessionKey is seeded from the persisted CompletedAt so a
// completion retry reuses the original key while completions of different
// sessions never collide.
func CompleteSessionKey(sessionID uuid.UUID, completedAt time.Time) string {
	return fmt.Sprintf("complete-%s-%d", sessionID, completedAt.UnixMilli())
}
