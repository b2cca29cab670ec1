package sinks

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"ballistic/server/logging"
)

func TestConsoleSinkFormatsEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	err := sink.Write(logging.Event{
		Type:     "match.turn_advanced",
		Match:    "m1",
		Actor:    logging.EntityRef{ID: "p0", Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Payload:  map[string]int{"turnIndex": 2},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	line := buf.String()
	for _, want := range []string{"[match.turn_advanced]", "match=m1", "actor=player:p0", "severity=info", `"turnIndex":2`} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestMemorySinkRetainsAndResets(t *testing.T) {
	sink := NewMemorySink()
	sink.Write(logging.Event{Type: "a"})
	sink.Write(logging.Event{Type: "b", Extra: map[string]any{"k": "v"}})

	events := sink.Events()
	if len(events) != 2 || events[1].Extra["k"] != "v" {
		t.Fatalf("events wrong: %+v", events)
	}

	// The returned slice is a copy; mutating it must not touch the sink.
	events[0].Type = "mutated"
	if sink.Events()[0].Type != "a" {
		t.Fatalf("snapshot aliased sink storage")
	}

	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Fatalf("reset kept events")
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}
