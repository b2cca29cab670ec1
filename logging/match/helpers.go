package match

import (
	"context"

	"ballistic/server/logging"
)

const (
	// EventTurnAdvanced is emitted every time the turn rotates to the next seat.
	EventTurnAdvanced logging.EventType = "match.turn_advanced"
	// EventForceAdvance is emitted when the watchdog rotates the turn without
	// the active player's cooperation.
	EventForceAdvance logging.EventType = "match.force_advance"
	// EventRestarted is emitted when any player resets the match with a fresh seed.
	EventRestarted logging.EventType = "match.restarted"
	// EventInitialized is emitted when the session roster is first populated.
	EventInitialized logging.EventType = "match.initialized"
)

// TurnAdvancedPayload records which seat the turn moved to.
type TurnAdvancedPayload struct {
	TurnIndex int    `json:"turnIndex"`
	Phase     string `json:"phase"`
}

// ForceAdvancePayload carries the watchdog's reason code.
type ForceAdvancePayload struct {
	Reason    string `json:"reason"`
	TurnIndex int    `json:"turnIndex"`
}

// RestartedPayload carries the replacement seed.
type RestartedPayload struct {
	Seed uint32 `json:"seed"`
}

// InitializedPayload records the roster size and seed of a fresh session.
type InitializedPayload struct {
	Players int    `json:"players"`
	Seed    uint32 `json:"seed"`
}

func TurnAdvanced(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload TurnAdvancedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTurnAdvanced,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryTurn,
		Payload:  payload,
	})
}

func ForceAdvance(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ForceAdvancePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventForceAdvance,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryTurn,
		Payload:  payload,
	})
}

func Restarted(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload RestartedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRestarted,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryTurn,
		Payload:  payload,
	})
}

func Initialized(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload InitializedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventInitialized,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}
