package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestBackoffDoublesUntilCap(t *testing.T) {
	base := time.Second
	cap := 5 * time.Minute

	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{8, 256 * time.Second},
		{9, cap},
		{50, cap},
	}
	for _, tc := range cases {
		if got := Backoff(base, cap, tc.attempts); got != tc.want {
			t.Fatalf("Backoff(attempts=%d): want=%v got=%v", tc.attempts, tc.want, got)
		}
	}
}

func TestJitterStaysWithinBounds(t *testing.T) {
	base := 10 * time.Second
	// A hair of slack for float conversion either side of the 20% band.
	low := time.Duration(float64(base) * 0.79)
	high := time.Duration(float64(base) * 1.21)

	for i := 0; i < 100; i++ {
		got := Jitter(base)
		if got < low || got > high {
			t.Fatalf("jitter out of bounds: %v not in [%v, %v]", got, low, high)
		}
	}
	if Jitter(0) != 0 {
		t.Fatal("zero base must not jitter")
	}
}

func TestRetryAfterDuration(t *testing.T) {
	withHeader := http.Header{"Retry-After": []string{"120"}}
	if got := RetryAfterDuration(withHeader, time.Second, 5*time.Minute); got != 120*time.Second {
		t.Fatalf("header value: want=120s got=%v", got)
	}
	if got := RetryAfterDuration(withHeader, time.Second, time.Minute); got != time.Minute {
		t.Fatalf("clamp: want=1m got=%v", got)
	}
	if got := RetryAfterDuration(http.Header{}, 3*time.Second, time.Minute); got != 3*time.Second {
		t.Fatalf("fallback: want=3s got=%v", got)
	}
	garbage := http.Header{"Retry-After": []string{"soon"}}
	if got := RetryAfterDuration(garbage, 3*time.Second, time.Minute); got != 3*time.Second {
		t.Fatalf("unparseable header: want=3s got=%v", got)
	}
}

type codedError struct{ status int }

func (e *codedError) Error() string       { return fmt.Sprintf("status %d", e.status) }
func (e *codedError) HTTPStatusCode() int { return e.status }

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(nil) {
		t.Fatal("nil error must not be retryable")
	}
	if !IsRetryableError(context.DeadlineExceeded) {
		t.Fatal("deadline exceeded must be retryable")
	}
	if !IsRetryableError(fmt.Errorf("push: %w", &codedError{status: 503})) {
		t.Fatal("wrapped 503 must be retryable")
	}
	if IsRetryableError(&codedError{status: 422}) {
		t.Fatal("422 must not be retryable")
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 425, 429, 500, 503, 599} {
		if !IsRetryableHTTPStatus(code) {
			t.Fatalf("status %d must be retryable", code)
		}
	}
	for _, code := range []int{200, 204, 400, 404, 409, 422} {
		if IsRetryableHTTPStatus(code) {
			t.Fatalf("status %d must not be retryable", code)
		}
	}
}
