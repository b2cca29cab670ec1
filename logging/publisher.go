package logging

import (
	"context"
	"time"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

type EntityKind string

const (
	EntityKindUnknown EntityKind = "unknown"
	EntityKindPlayer  EntityKind = "player"
	EntityKindBot     EntityKind = "bot"
	EntityKindMatch   EntityKind = "match"
)

// Event is one structured record emitted by the coordinator: a turn
// transition, a presence change, or a system-level notice.
type Event struct {
	Type     EventType      `json:"type"`
	Match    string         `json:"match"`
	Time     time.Time      `json:"time"`
	Actor    EntityRef      `json:"actor"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

const (
	CategoryTurn    = "turn"
	CategoryNetwork = "network"
	CategorySystem  = "system"
)

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// NopPublisher returns a publisher that discards every event.
func NopPublisher() Publisher {
	return nopPublisher{}
}

// WithMatch returns a publisher that stamps the match id onto every event
// that does not already carry one.
func WithMatch(p Publisher, matchID string) Publisher {
	if p == nil {
		return NopPublisher()
	}
	if matchID == "" {
		return p
	}
	return &matchPublisher{next: p, matchID: matchID}
}

type matchPublisher struct {
	next    Publisher
	matchID string
}

func (p *matchPublisher) Publish(ctx context.Context, event Event) {
	if p.next == nil {
		return
	}
	if event.Match == "" {
		event.Match = p.matchID
	}
	p.next.Publish(ctx, event)
}

func (e Event) WithExtra(key string, value any) Event {
	if e.Extra == nil {
		e.Extra = make(map[string]any, 1)
	}
	e.Extra[key] = value
	return e
}
