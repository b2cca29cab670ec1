package server

import (
	"context"
	"encoding/json"
	"time"

	"ballistic/server/logging"
	matchlog "ballistic/server/logging/match"
)

// fireVariants are the input kinds that commit the active player's turn
// and move the match into the Projectile phase. Movement kinds (Walk,
// Jump, Backflip) relay to spectators but leave the turn open.
var fireVariants = map[string]bool{
	"Fire":            true,
	"DrillFire":       true,
	"AirstrikeTarget": true,
	"BatSwing":        true,
	"TeleportTo":      true,
	"BuildWallPlace":  true,
}

// isFireInput classifies a raw input payload by its variant key. The
// payload stays opaque otherwise; the coordinator never simulates it.
func isFireInput(input string) bool {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(input), &envelope); err != nil {
		return false
	}
	for key := range envelope {
		if fireVariants[key] {
			return true
		}
	}
	return false
}

// handleInput relays an action from the active player and, when the
// action commits the turn, records it and starts the Projectile phase.
// Movement inputs mutate no server state and are relayed from any seat in
// any phase: the active player keeps moving through its own retreat, and
// the other players dodge while a shell is in the air. Only a fire from
// the active seat during Aiming commits.
func (c *Coordinator) handleInput(senderIdx int, input string) {
	if input == "" {
		return
	}
	fire := isFireInput(input)
	if fire && (c.sess.Phase != PhaseAiming || senderIdx != c.sess.CurrentTurn) {
		return
	}
	relay := inputRelayMessage{
		Ver:       ProtocolVersion,
		Type:      "input",
		TurnIndex: c.sess.CurrentTurn,
		Input:     input,
	}
	c.broadcastExcept(c.sess.Seats[senderIdx].PlayerID, relay)
	if !fire {
		return
	}
	c.sess.InputLog = append(c.sess.InputLog, InputEntry{
		PlayerIndex: senderIdx,
		Input:       input,
	})
	now := c.now()
	c.sess.Phase = PhaseProjectile
	c.sess.PhaseStartedAt = now
	c.persist()
	c.broadcastState()
	c.wd.Arm(c.sess.phaseDeadline(c.cfg))
}

// handleAim relays a transient aim preview from the active player. Aim
// never touches persisted state.
func (c *Coordinator) handleAim(senderIdx int, aim float64) {
	if c.sess.Phase != PhaseAiming || senderIdx != c.sess.CurrentTurn {
		return
	}
	c.broadcastExcept(c.sess.Seats[senderIdx].PlayerID, aimRelayMessage{
		Ver:       ProtocolVersion,
		Type:      "aim",
		TurnIndex: c.sess.CurrentTurn,
		Aim:       aim,
	})
}

// handleRetreatStart moves Projectile into Retreat. Only the active
// player may call it; anyone else's report of the shot resolving is
// ignored in favor of the shooter's.
func (c *Coordinator) handleRetreatStart(senderIdx int) {
	if c.sess.Phase != PhaseProjectile || senderIdx != c.sess.CurrentTurn {
		return
	}
	c.sess.Phase = PhaseRetreat
	c.sess.PhaseStartedAt = c.now()
	c.persist()
	c.broadcastState()
	c.wd.Arm(c.sess.phaseDeadline(c.cfg))
}

// handleEndTurn lets the active player finish the turn from any phase:
// skipping it during Aiming, reporting the shot settled during Projectile,
// or cutting the retreat walk short.
func (c *Coordinator) handleEndTurn(senderIdx int) {
	if senderIdx != c.sess.CurrentTurn {
		return
	}
	c.advanceTurn()
}

// advanceTurn rotates to the next seat and resets the phase machine to
// Aiming. Every rotation bumps the epoch so deferred bot callbacks from
// the previous turn go stale.
func (c *Coordinator) advanceTurn() {
	c.epoch++
	now := c.now()
	c.sess.CurrentTurn = (c.sess.CurrentTurn + 1) % len(c.sess.Seats)
	c.sess.Phase = PhaseAiming
	c.sess.PhaseStartedAt = now
	c.sess.TurnDeadline = now.Add(c.cfg.TurnBudget)
	c.persist()
	c.broadcast(turnAdvancedMessage{
		Ver:                 ProtocolVersion,
		Type:                "turn_advanced",
		TurnIndex:           c.sess.CurrentTurn,
		Log:                 c.sess.snapshotTerrain(),
		Balls:               c.sess.snapshotBalls(),
		TurnTimeRemainingMs: c.sess.timeRemaining(c.cfg, now).Milliseconds(),
	})
	c.broadcastState()
	matchlog.TurnAdvanced(context.Background(), c.events,
		logging.EntityRef{ID: c.sess.activeSeat().PlayerID, Kind: seatKind(c.sess.activeSeat())},
		matchlog.TurnAdvancedPayload{TurnIndex: c.sess.CurrentTurn, Phase: string(c.sess.Phase)})
	c.armForCurrentSeat()
	c.maybeStartBotTurn()
}

// forceAdvance announces a watchdog-driven rotation before performing it.
func (c *Coordinator) forceAdvance(reason string) {
	c.broadcast(forceAdvanceMessage{
		Ver:    ProtocolVersion,
		Type:   "force_advance",
		Reason: reason,
	})
	matchlog.ForceAdvance(context.Background(), c.events,
		logging.EntityRef{ID: c.sess.activeSeat().PlayerID, Kind: seatKind(c.sess.activeSeat())},
		matchlog.ForceAdvancePayload{Reason: reason, TurnIndex: c.sess.CurrentTurn})
	c.logger.Printf("[turn] match=%s force advance turn=%d reason=%s", c.matchID, c.sess.CurrentTurn, reason)
	c.advanceTurn()
}

// checkDeadlines runs whenever the watchdog alarm fires. The alarm is
// advisory only: everything overdue is re-derived from current state, so
// an alarm armed for a phase that has since rotated away does no harm.
func (c *Coordinator) checkDeadlines() {
	if !c.sess.initialized() {
		return
	}
	now := c.now()
	deadline := c.sess.phaseDeadline(c.cfg)
	switch c.sess.Phase {
	case PhaseAiming:
		seat := c.sess.activeSeat()
		if !seat.IsBot && !c.registry.Online(seat.PlayerID) {
			// The reconnect window armed at disconnect time governs when
			// it is shorter than the remaining turn budget.
			if !c.wd.deadline.IsZero() && c.wd.deadline.Before(deadline) {
				deadline = c.wd.deadline
			}
			if !now.Before(deadline) {
				c.forceAdvance(ReasonPlayerDisconnected)
				return
			}
		} else if !now.Before(deadline) {
			c.forceAdvance(ReasonTurnTimeout)
			return
		}
	case PhaseProjectile:
		if !now.Before(deadline) {
			c.forceAdvance(ReasonProjectileTimeout)
			return
		}
	case PhaseRetreat:
		if !now.Before(deadline) {
			c.forceAdvance(ReasonRetreatTimeout)
			return
		}
	}
	c.wd.Arm(deadline)
}

// armForCurrentSeat sets the liveness alarm for the freshly started turn.
func (c *Coordinator) armForCurrentSeat() {
	c.wd.Arm(c.sess.phaseDeadline(c.cfg))
}

// broadcastState ships absolute and relative phase timing to everyone.
func (c *Coordinator) broadcastState() {
	now := c.now()
	var deadline time.Time
	switch c.sess.Phase {
	case PhaseProjectile:
		deadline = c.sess.PhaseStartedAt.Add(c.cfg.ProjectileTimeout)
	case PhaseRetreat:
		deadline = c.sess.PhaseStartedAt.Add(c.cfg.RetreatTimeout)
	default:
		deadline = c.sess.TurnDeadline
	}
	c.broadcast(stateMessage{
		Ver:                 ProtocolVersion,
		Type:                "state",
		CurrentTurnIndex:    c.sess.CurrentTurn,
		Phase:               c.sess.Phase,
		TurnEndTime:         deadline.UnixMilli(),
		TurnTimeRemainingMs: c.sess.timeRemaining(c.cfg, now).Milliseconds(),
		ServerTime:          now.UnixMilli(),
	})
}

// handleRestart resets the match with a replacement seed. Any seated
// player may trigger it; the rotation restarts from seat zero.
func (c *Coordinator) handleRestart(senderIdx int, seed uint32) {
	c.epoch++
	now := c.now()
	c.sess.RngSeed = seed
	c.sess.CurrentTurn = 0
	c.sess.Phase = PhaseAiming
	c.sess.PhaseStartedAt = now
	c.sess.TurnDeadline = now.Add(c.cfg.TurnBudget)
	c.sess.InputLog = make([]InputEntry, 0)
	c.sess.TerrainLog = make([]json.RawMessage, 0)
	c.sess.Balls = make([]BallSnapshot, len(c.sess.Seats))
	c.persist()
	c.broadcast(restartMessage{Ver: ProtocolVersion, Type: "restart", Seed: seed})
	c.broadcastState()
	matchlog.Restarted(context.Background(), c.events,
		logging.EntityRef{ID: c.sess.Seats[senderIdx].PlayerID, Kind: seatKind(c.sess.Seats[senderIdx])},
		matchlog.RestartedPayload{Seed: seed})
	c.armForCurrentSeat()
	c.maybeStartBotTurn()
}

func seatKind(seat Seat) logging.EntityKind {
	if seat.IsBot {
		return logging.EntityKindBot
	}
	return logging.EntityKindPlayer
}
