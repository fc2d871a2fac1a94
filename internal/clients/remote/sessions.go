package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/outbox"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
)

// Session is the platform's wire shape for a learner session.
type Session struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"user_id"`
	LessonID             uuid.UUID  `json:"lesson_id"`
	UnitID               uuid.UUID  `json:"unit_id"`
	Status               string     `json:"status"`
	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CurrentExerciseIndex int        `json:"current_exercise_index"`
	TotalExercises       int        `json:"total_exercises"`
	ProgressPercentage   float64    `json:"progress_percentage"`
}

// PushOutboxEntry replays a queued write against the platform. The entry
// carries everything needed (endpoint, method, headers, payload); the
// idempotency key rides along as a header so the server can dedupe.
func (c *Client) PushOutboxEntry(ctx context.Context, entry *domain.OutboxEntry) (outbox.Outcome, error) {
	headers := map[string]string{}
	if len(entry.Headers) > 0 {
		if err := json.Unmarshal(entry.Headers, &headers); err != nil {
			return outbox.OutcomePermanentFailure, fmt.Errorf("malformed entry headers: %w", err)
		}
	}
	headers["Idempotency-Key"] = entry.IdempotencyKey

	resp, err := c.Do(ctx, entry.Method, entry.Endpoint, nil, headers, entry.Payload)
	if err != nil {
		return outbox.OutcomeRetryableFailure, err
	}
	if err := classifyStatus(resp); err != nil {
		if apperr.IsPermanent(err) {
			return outbox.OutcomePermanentFailure, apperr.Permanent(resp.Status, string(resp.Body))
		}
		return outbox.OutcomeRetryableFailure, err
	}
	return outbox.OutcomeDelivered, nil
}

// PullSessions fetches the server's authoritative session list for the user.
func (c *Client) PullSessions(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	resp, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/users/%s/sessions", userID), nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := classifyStatus(resp); err != nil {
		if apperr.IsPermanent(err) {
			return nil, apperr.Permanent(resp.Status, string(resp.Body))
		}
		return nil, err
	}

	var payload struct {
		Sessions []Session `json:"sessions"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("decode session list: %w", err)
	}
	return payload.Sessions, nil
}
