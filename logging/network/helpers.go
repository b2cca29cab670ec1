package network

import (
	"context"

	"ballistic/server/logging"
)

const (
	// EventPlayerConnected is emitted when a player's channel attaches.
	EventPlayerConnected logging.EventType = "network.player_connected"
	// EventPlayerDisconnected is emitted when a player's channel detaches.
	EventPlayerDisconnected logging.EventType = "network.player_disconnected"
)

// PresencePayload captures presence transition details.
type PresencePayload struct {
	PlayerIndex int  `json:"playerIndex"`
	Reconnect   bool `json:"reconnect,omitempty"`
}

func PlayerConnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PresencePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerConnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func PlayerDisconnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PresencePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerDisconnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
