package server

import (
	"context"
	"encoding/json"
	"testing"

	"ballistic/server/internal/store"
)

func TestManagerLookupRefusesUnknownMatch(t *testing.T) {
	m := NewManager(testConfig(), store.NewMemoryStore())
	defer m.Close()

	if _, ok := m.Lookup("never-initialized"); ok {
		t.Fatalf("lookup handed out an empty match")
	}
}

func TestManagerLookupMissLeavesNothingBehind(t *testing.T) {
	m := NewManager(testConfig(), store.NewMemoryStore())
	defer m.Close()

	for i := 0; i < 3; i++ {
		if _, ok := m.Lookup("garbage"); ok {
			t.Fatalf("lookup handed out an empty match")
		}
	}
	m.mu.Lock()
	live := len(m.matches)
	m.mu.Unlock()
	if live != 0 {
		t.Fatalf("lookup misses left %d coordinators in the map", live)
	}
	if diags := m.Diagnostics(); len(diags) != 0 {
		t.Fatalf("lookup misses show up in diagnostics: %+v", diags)
	}
}

func TestManagerInitThenLookup(t *testing.T) {
	m := NewManager(testConfig(), store.NewMemoryStore())
	defer m.Close()

	seats := []Seat{{PlayerID: "p0"}, {PlayerID: "p1"}}
	if result := m.Init("m1", seats, 42, "t1"); result != InitOK {
		t.Fatalf("init returned %q", result)
	}
	c, ok := m.Lookup("m1")
	if !ok || c == nil {
		t.Fatalf("initialized match not found")
	}
	if again := m.Get("m1"); again != c {
		t.Fatalf("manager created a second coordinator for the same match")
	}
}

func TestManagerRehydratesFromStore(t *testing.T) {
	st := store.NewMemoryStore()
	sess := newSession("m9")
	sess.Seats = []Seat{{PlayerID: "p0", Name: "alpha"}, {PlayerID: "p1", Name: "beta"}}
	sess.RngSeed = 7
	sess.CurrentTurn = 1
	payload, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := st.Save(context.Background(), "m9", payload); err != nil {
		t.Fatalf("save: %v", err)
	}

	m := NewManager(testConfig(), st)
	defer m.Close()

	c, ok := m.Lookup("m9")
	if !ok {
		t.Fatalf("stored match not rehydrated")
	}
	d := c.Diagnostics()
	if d.CurrentTurn != 1 || d.Seats != 2 {
		t.Fatalf("rehydrated state wrong: %+v", d)
	}
}

func TestManagerDiagnosticsSortedByMatch(t *testing.T) {
	m := NewManager(testConfig(), store.NewMemoryStore())
	defer m.Close()

	seats := []Seat{{PlayerID: "p0"}, {PlayerID: "p1"}}
	m.Init("m-b", seats, 1, "")
	m.Init("m-a", seats, 2, "")

	diags := m.Diagnostics()
	if len(diags) != 2 || diags[0].MatchID != "m-a" || diags[1].MatchID != "m-b" {
		t.Fatalf("diagnostics order wrong: %+v", diags)
	}
}
