package server

import "encoding/json"

// sendCatchUp ships the full catch-up sequence to one freshly attached
// channel. Order matters to the client: identity first (so it knows which
// seat it is), then the terrain log (so the ground is re-carved before
// units land on it), then the phase snapshot.
func (c *Coordinator) sendCatchUp(playerID string, seatIdx int) {
	if !c.sess.initialized() {
		return
	}
	c.sendTo(playerID, identityMessage{
		Ver:           ProtocolVersion,
		Type:          "identity",
		MyPlayerIndex: seatIdx,
		PlayerNames:   c.sess.namesCSV(),
		PlayerBots:    c.sess.botsCSV(),
		RngSeed:       c.sess.RngSeed,
		TerrainID:     c.sess.TerrainID,
	})
	// Always sent, even empty: an empty log tells the client its local
	// carving is already complete rather than pending.
	c.sendTo(playerID, terrainSyncMessage{
		Ver:  ProtocolVersion,
		Type: "terrain_sync",
		Log:  c.sess.snapshotTerrain(),
	})
	resync := gameResyncMessage{
		Ver:                 ProtocolVersion,
		Type:                "game_resync",
		Phase:               c.sess.Phase,
		CurrentTurnIndex:    c.sess.CurrentTurn,
		TurnTimeRemainingMs: c.sess.timeRemaining(c.cfg, c.now()).Milliseconds(),
	}
	// Ball positions only once the match has progressed; a fresh match's
	// all-zero placeholders would stomp the client's seeded spawns.
	if c.sess.progressed() {
		resync.Balls = c.sess.snapshotBalls()
	}
	c.sendTo(playerID, resync)
}

// handleTerrainDamages merges a client's terrain op log. The log is
// append-only on every client, so a report at least as long as the stored
// one supersedes it whole, and a shorter (stale) report is discarded.
// Entries themselves stay opaque; the coordinator only compares lengths.
func (c *Coordinator) handleTerrainDamages(senderIdx int, log []json.RawMessage) {
	if len(log) < len(c.sess.TerrainLog) {
		return
	}
	merged := make([]json.RawMessage, len(log))
	copy(merged, log)
	c.sess.TerrainLog = merged
	c.persist()
	c.broadcastExcept(c.sess.Seats[senderIdx].PlayerID, terrainSyncMessage{
		Ver:  ProtocolVersion,
		Type: "terrain_sync",
		Log:  c.sess.snapshotTerrain(),
	})
}

// handlePosUpdate stores and relays one unit's motion report. Clients may
// only report for units their seat owns; reports for foreign units are
// dropped as either a bug or a spoof attempt.
func (c *Coordinator) handlePosUpdate(senderIdx int, msg clientMessage) {
	if msg.BI == nil {
		return
	}
	bi := *msg.BI
	if !c.sess.ownsUnit(senderIdx, bi) {
		c.logger.Printf("[state] match=%s seat=%d rejected pos_update for foreign unit %d", c.matchID, senderIdx, bi)
		return
	}
	if bi >= len(c.sess.Balls) {
		grown := make([]BallSnapshot, bi+1)
		copy(grown, c.sess.Balls)
		c.sess.Balls = grown
	}
	ball := &c.sess.Balls[bi]
	if msg.X != nil {
		ball.X = *msg.X
	}
	if msg.Y != nil {
		ball.Y = *msg.Y
	}
	if msg.VX != nil {
		ball.VX = *msg.VX
	}
	if msg.VY != nil {
		ball.VY = *msg.VY
	}
	c.broadcastExcept(c.sess.Seats[senderIdx].PlayerID, struct {
		Ver  int     `json:"ver"`
		Type string  `json:"type"`
		BI   int     `json:"bi"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		VX   float64 `json:"vx"`
		VY   float64 `json:"vy"`
	}{
		Ver:  ProtocolVersion,
		Type: "pos_update",
		BI:   bi,
		X:    ball.X,
		Y:    ball.Y,
		VX:   ball.VX,
		VY:   ball.VY,
	})
}

// handleBallState absorbs a full-roster report from the active player.
// Only the seat holding the turn is trusted with the whole array: it is
// the one client that just simulated the shot's damage. Fields absent
// from an entry keep their stored values.
func (c *Coordinator) handleBallState(senderIdx int, updates []ballUpdate) {
	if senderIdx != c.sess.CurrentTurn || len(updates) == 0 {
		return
	}
	if len(updates) > len(c.sess.Balls) {
		grown := make([]BallSnapshot, len(updates))
		copy(grown, c.sess.Balls)
		c.sess.Balls = grown
	}
	for i, upd := range updates {
		ball := &c.sess.Balls[i]
		if upd.X != nil {
			ball.X = *upd.X
		}
		if upd.Y != nil {
			ball.Y = *upd.Y
		}
		if upd.VX != nil {
			ball.VX = *upd.VX
		}
		if upd.VY != nil {
			ball.VY = *upd.VY
		}
		if upd.HP != nil {
			ball.HP = *upd.HP
		}
		if upd.Alive != nil {
			ball.Alive = *upd.Alive
		}
	}
	c.persist()
}
