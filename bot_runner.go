package server

import "ballistic/server/internal/bot"

// maybeStartBotTurn kicks off the deferred action chain when the seat
// that just gained the turn is a bot. Every link in the chain captures
// the epoch at arm time and re-checks it on fire, so a force-advance or
// restart during the bot's pauses orphans the chain cleanly.
func (c *Coordinator) maybeStartBotTurn() {
	if !c.sess.initialized() || c.sess.Phase != PhaseAiming {
		return
	}
	seat := c.sess.activeSeat()
	if !seat.IsBot {
		return
	}
	epoch := c.epoch
	seatIdx := c.sess.CurrentTurn
	c.postAfter(c.cfg.BotThinkDelay, func() {
		c.runBotPlan(epoch, seatIdx)
	})
}

func (c *Coordinator) runBotPlan(epoch uint64, seatIdx int) {
	if c.epoch != epoch || c.sess.Phase != PhaseAiming || c.sess.CurrentTurn != seatIdx {
		return
	}
	units := make([]bot.Unit, len(c.sess.Balls))
	for i, b := range c.sess.Balls {
		units[i] = bot.Unit{X: b.X, Y: b.Y, HP: b.HP, Alive: b.Alive}
	}
	plan, ok := bot.PlanTurn(c.sess.RngSeed, c.sess.CurrentTurn, len(c.sess.InputLog), units, len(c.sess.Seats), seatIdx)
	if !ok {
		// Nothing alive to shoot with or at; pass the turn along.
		c.advanceTurn()
		return
	}
	c.botStep(epoch, seatIdx, plan, plan.WalkSteps)
}

// botStep performs one paced move, then reschedules itself until the
// walk budget is spent, then fires.
func (c *Coordinator) botStep(epoch uint64, seatIdx int, plan bot.Plan, stepsLeft int) {
	if c.epoch != epoch || c.sess.Phase != PhaseAiming || c.sess.CurrentTurn != seatIdx {
		return
	}
	if stepsLeft > 0 {
		c.handleInput(seatIdx, plan.WalkInput())
		c.postAfter(c.cfg.BotStepInterval, func() {
			c.botStep(epoch, seatIdx, plan, stepsLeft-1)
		})
		return
	}
	c.handleInput(seatIdx, plan.FireInput())
	if c.sess.Phase != PhaseProjectile {
		// The fire payload was rejected; do not wedge the rotation.
		c.advanceTurn()
		return
	}
	// The shooter normally reports the shot resolving; a bot has no
	// client, so the coordinator rotates after a fixed viewing window.
	c.postAfter(c.cfg.BotPostFireDelay, func() {
		if c.epoch != epoch {
			return
		}
		c.advanceTurn()
	})
}
