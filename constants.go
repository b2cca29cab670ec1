package server

import "time"

const (
	ProtocolVersion = 1
	writeWait       = 10 * time.Second
)

// Phase wire strings match the client's game_resync parser.
type Phase string

const (
	PhaseAiming     Phase = "aiming"
	PhaseProjectile Phase = "projectile"
	PhaseRetreat    Phase = "retreat"
)

// Force-advance reason codes broadcast to clients.
const (
	ReasonTurnTimeout        = "turn_timeout"
	ReasonProjectileTimeout  = "projectile_timeout"
	ReasonRetreatTimeout     = "retreat_timeout"
	ReasonPlayerDisconnected = "player_disconnected"
)
