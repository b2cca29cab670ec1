package logging

import (
	"context"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *captureSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func testRouterConfig() Config {
	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"capture"}
	return cfg
}

func TestRouterDeliversToEnabledSink(t *testing.T) {
	sink := &captureSink{}
	router := NewRouter(testRouterConfig(), SystemClock{}, []NamedSink{{Name: "capture", Sink: sink}})

	router.Publish(context.Background(), Event{Type: "match.turn_advanced", Match: "m1", Severity: SeverityInfo})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	events := sink.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(events))
	}
	if events[0].Match != "m1" || events[0].Type != "match.turn_advanced" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatalf("router did not stamp the time")
	}
	if !sink.closed {
		t.Fatalf("sink not closed")
	}
}

func TestRouterFiltersBySeverity(t *testing.T) {
	cfg := testRouterConfig()
	cfg.MinimumSeverity = SeverityWarn
	sink := &captureSink{}
	router := NewRouter(cfg, SystemClock{}, []NamedSink{{Name: "capture", Sink: sink}})

	router.Publish(context.Background(), Event{Type: "a", Severity: SeverityInfo})
	router.Publish(context.Background(), Event{Type: "b", Severity: SeverityWarn})
	router.Close(context.Background())

	events := sink.snapshot()
	if len(events) != 1 || events[0].Type != "b" {
		t.Fatalf("severity filter failed: %+v", events)
	}
}

func TestRouterIgnoresDisabledSinks(t *testing.T) {
	cfg := testRouterConfig() // only "capture" enabled
	enabled := &captureSink{}
	disabled := &captureSink{}
	router := NewRouter(cfg, SystemClock{}, []NamedSink{
		{Name: "capture", Sink: enabled},
		{Name: "other", Sink: disabled},
	})

	router.Publish(context.Background(), Event{Type: "a", Severity: SeverityInfo})
	router.Close(context.Background())

	if len(enabled.snapshot()) != 1 {
		t.Fatalf("enabled sink missed the event")
	}
	if len(disabled.snapshot()) != 0 {
		t.Fatalf("disabled sink received an event")
	}
}

func TestRouterDropsWhenBufferFull(t *testing.T) {
	cfg := testRouterConfig()
	cfg.BufferSize = 1
	// A sink that blocks until released, so the queue backs up.
	release := make(chan struct{})
	blocking := &blockingSink{release: release}
	router := NewRouter(cfg, SystemClock{}, []NamedSink{{Name: "capture", Sink: blocking}})

	for i := 0; i < 16; i++ {
		router.Publish(context.Background(), Event{Type: "spam", Severity: SeverityInfo})
	}
	close(release)
	router.Close(context.Background())

	stats := router.Stats()
	if stats.DroppedTotal == 0 {
		t.Fatalf("expected drops with a full buffer, stats=%+v", stats)
	}
	if stats.EventsTotal+stats.DroppedTotal != 16 {
		t.Fatalf("accounting mismatch: %+v", stats)
	}
}

type blockingSink struct {
	release chan struct{}
	once    sync.Once
}

func (s *blockingSink) Write(Event) error {
	s.once.Do(func() { <-s.release })
	return nil
}

func (s *blockingSink) Close(context.Context) error { return nil }

func TestPublishAfterCloseIsIgnored(t *testing.T) {
	sink := &captureSink{}
	router := NewRouter(testRouterConfig(), SystemClock{}, []NamedSink{{Name: "capture", Sink: sink}})
	router.Close(context.Background())

	router.Publish(context.Background(), Event{Type: "late", Severity: SeverityInfo})
	time.Sleep(10 * time.Millisecond)
	if len(sink.snapshot()) != 0 {
		t.Fatalf("event delivered after close")
	}
}

func TestWithMatchStampsMissingMatchID(t *testing.T) {
	var got Event
	pub := WithMatch(PublisherFunc(func(_ context.Context, event Event) { got = event }), "m7")

	pub.Publish(context.Background(), Event{Type: "a"})
	if got.Match != "m7" {
		t.Fatalf("match id not stamped: %+v", got)
	}
	pub.Publish(context.Background(), Event{Type: "b", Match: "other"})
	if got.Match != "other" {
		t.Fatalf("existing match id overwritten: %+v", got)
	}
}
