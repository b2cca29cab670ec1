package server

import (
	"testing"
	"time"
)

func TestOwnsUnitPartitionsByIndex(t *testing.T) {
	s := newSession("m")
	s.Seats = []Seat{{PlayerID: "a"}, {PlayerID: "b"}, {PlayerID: "c"}}

	cases := []struct {
		seat, ball int
		want       bool
	}{
		{0, 0, true},
		{0, 3, true},
		{1, 1, true},
		{1, 4, true},
		{2, 5, true},
		{0, 1, false},
		{2, 1, false},
		{0, -1, false},
	}
	for _, tc := range cases {
		if got := s.ownsUnit(tc.seat, tc.ball); got != tc.want {
			t.Fatalf("ownsUnit(%d, %d) = %v, want %v", tc.seat, tc.ball, got, tc.want)
		}
	}
}

func TestRosterCSVRendering(t *testing.T) {
	s := newSession("m")
	s.Seats = []Seat{
		{PlayerID: "a", Name: "alpha"},
		{PlayerID: "b", Name: "Crusher", IsBot: true},
		{PlayerID: "c", Name: "gamma"},
	}
	if got := s.namesCSV(); got != "alpha,Crusher,gamma" {
		t.Fatalf("namesCSV = %q", got)
	}
	if got := s.botsCSV(); got != "0,1,0" {
		t.Fatalf("botsCSV = %q", got)
	}
}

func TestProgressedDetectsMovement(t *testing.T) {
	s := newSession("m")
	s.Seats = []Seat{{PlayerID: "a"}, {PlayerID: "b"}}
	if s.progressed() {
		t.Fatalf("fresh session reported progress")
	}
	s.InputLog = append(s.InputLog, InputEntry{PlayerIndex: 0, Input: "{}"})
	if !s.progressed() {
		t.Fatalf("committed input not detected")
	}
	s2 := newSession("m")
	s2.Seats = s.Seats
	s2.CurrentTurn = 1
	if !s2.progressed() {
		t.Fatalf("rotated turn not detected")
	}
}

func TestTimeRemainingClampsAtZero(t *testing.T) {
	cfg := DefaultCoordinatorConfig()
	now := time.Unix(1_700_000_000, 0)
	s := newSession("m")
	s.Seats = []Seat{{PlayerID: "a"}}
	s.Phase = PhaseAiming
	s.TurnDeadline = now.Add(10 * time.Second)

	if got := s.timeRemaining(cfg, now); got != 10*time.Second {
		t.Fatalf("remaining = %v", got)
	}
	if got := s.timeRemaining(cfg, now.Add(time.Minute)); got != 0 {
		t.Fatalf("overdue remaining not clamped: %v", got)
	}

	s.Phase = PhaseRetreat
	s.PhaseStartedAt = now
	if got := s.timeRemaining(cfg, now.Add(2*time.Second)); got != cfg.RetreatTimeout-2*time.Second {
		t.Fatalf("retreat remaining = %v", got)
	}
}
