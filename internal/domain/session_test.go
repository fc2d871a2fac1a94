package domain

import "testing"

func TestSessionStatusRankOrdering(t *testing.T) {
	// Reconciliation depends on this strict ordering: the more terminal a
	// status, the higher its rank.
	order := []SessionStatus{SessionActive, SessionPaused, SessionAbandoned, SessionCompleted}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Fatalf("rank(%s)=%d not above rank(%s)=%d",
				order[i], order[i].Rank(), order[i-1], order[i-1].Rank())
		}
	}
	if SessionStatus("bogus").Rank() != -1 {
		t.Fatalf("unknown status rank: want=-1 got=%d", SessionStatus("bogus").Rank())
	}
}

func TestSessionStatusTerminal(t *testing.T) {
	if SessionActive.Terminal() || SessionPaused.Terminal() {
		t.Fatal("active and paused must not be terminal")
	}
	if !SessionCompleted.Terminal() || !SessionAbandoned.Terminal() {
		t.Fatal("completed and abandoned must be terminal")
	}
}

func TestGradeFor(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "A"},
		{90, "A"},
		{89.9, "B"},
		{80, "B"},
		{70, "C"},
		{60, "D"},
		{59.9, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		if got := GradeFor(tc.score); got != tc.want {
			t.Fatalf("GradeFor(%v): want=%q got=%q", tc.score, tc.want, got)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		total, attempted, correct int
		want                      ObjectiveStatus
	}{
		{3, 0, 0, ObjectiveNotStarted},
		{3, 1, 0, ObjectivePartial},
		{3, 3, 2, ObjectivePartial},
		{3, 3, 3, ObjectiveCompleted},
		{0, 0, 0, ObjectiveNotStarted},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.total, tc.attempted, tc.correct); got != tc.want {
			t.Fatalf("StatusFor(%d,%d,%d): want=%q got=%q",
				tc.total, tc.attempted, tc.correct, tc.want, got)
		}
	}
}
