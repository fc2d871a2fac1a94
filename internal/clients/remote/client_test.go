package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/outbox"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewClient(baseURL, "token-123", 5*time.Second, log)
}

func pushFixture(key string) *domain.OutboxEntry {
	return &domain.OutboxEntry{
		ID:             uuid.New(),
		IdempotencyKey: key,
		Endpoint:       "/sessions",
		Method:         http.MethodPost,
		Payload:        datatypes.JSON([]byte(`{"session_id":"x"}`)),
		EnqueuedAt:     time.Now().UTC(),
	}
}

func TestPushOutboxEntrySendsIdempotencyKey(t *testing.T) {
	var gotKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	outcome, err := c.PushOutboxEntry(context.Background(), pushFixture("start-session-abc"))
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if outcome != outbox.OutcomeDelivered {
		t.Fatalf("outcome: %v", outcome)
	}
	if gotKey != "start-session-abc" {
		t.Fatalf("idempotency header: %q", gotKey)
	}
	if gotAuth != "Bearer token-123" {
		t.Fatalf("auth header: %q", gotAuth)
	}
}

func TestPushOutboxEntryClassifiesStatuses(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		wantOutcome outbox.Outcome
		transient   bool
	}{
		{"server error retries", http.StatusInternalServerError, outbox.OutcomeRetryableFailure, true},
		{"throttling retries", http.StatusTooManyRequests, outbox.OutcomeRetryableFailure, true},
		{"auth failure retries", http.StatusUnauthorized, outbox.OutcomeRetryableFailure, true},
		{"client error drops", http.StatusUnprocessableEntity, outbox.OutcomePermanentFailure, false},
		{"conflict drops", http.StatusConflict, outbox.OutcomePermanentFailure, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := testClient(t, srv.URL)
			outcome, err := c.PushOutboxEntry(context.Background(), pushFixture("k"))
			if outcome != tc.wantOutcome {
				t.Fatalf("outcome: want=%v got=%v (err=%v)", tc.wantOutcome, outcome, err)
			}
			if tc.transient && !apperr.IsTransient(err) {
				t.Fatalf("want transient error, got %v", err)
			}
			if !tc.transient && !apperr.IsPermanent(err) {
				t.Fatalf("want permanent error, got %v", err)
			}
		})
	}
}

func TestPushOutboxEntryCarriesRetryAfterPacing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	outcome, err := c.PushOutboxEntry(context.Background(), pushFixture("k"))
	if outcome != outbox.OutcomeRetryableFailure {
		t.Fatalf("outcome: %v", outcome)
	}
	var transient *apperr.TransientNetworkError
	if !errors.As(err, &transient) {
		t.Fatalf("want transient error, got %v", err)
	}
	if transient.RetryAfter != 120*time.Second {
		t.Fatalf("retry-after: want=120s got=%v", transient.RetryAfter)
	}
}

func TestPushOutboxEntryConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := testClient(t, srv.URL)
	outcome, err := c.PushOutboxEntry(context.Background(), pushFixture("k"))
	if outcome != outbox.OutcomeRetryableFailure {
		t.Fatalf("outcome: %v", outcome)
	}
	if !apperr.IsTransient(err) {
		t.Fatalf("want transient error, got %v", err)
	}
}

func TestPullSessionsDecodesList(t *testing.T) {
	userID := uuid.New()
	want := Session{
		ID:             uuid.New(),
		UserID:         userID,
		LessonID:       uuid.New(),
		UnitID:         uuid.New(),
		Status:         "completed",
		StartedAt:      time.Now().UTC().Truncate(time.Second),
		TotalExercises: 4,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/"+userID.String()+"/sessions" {
			t.Errorf("path: %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sessions": []Session{want}})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	got, err := c.PullSessions(context.Background(), userID)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("sessions: want=1 got=%d", len(got))
	}
	if got[0].ID != want.ID || got[0].Status != "completed" || got[0].TotalExercises != 4 {
		t.Fatalf("decoded session: %+v", got[0])
	}
}

func TestPullSessionsServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.PullSessions(context.Background(), uuid.New()); !apperr.IsTransient(err) {
		t.Fatalf("want transient error, got %v", err)
	}
}
