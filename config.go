package server

import (
	"log"
	"time"

	"ballistic/server/logging"
)

// CoordinatorConfig carries the tunable liveness budgets for one match.
// The defaults are the production values; tests shrink them.
type CoordinatorConfig struct {
	// TurnBudget is how long the active player has to act during Aiming.
	TurnBudget time.Duration
	// WatchdogGrace is the slack granted past a missed turn deadline
	// before the watchdog force-advances.
	WatchdogGrace time.Duration
	// ProjectileTimeout is the hard cap on the Projectile phase.
	ProjectileTimeout time.Duration
	// RetreatTimeout is the hard cap on the Retreat phase.
	RetreatTimeout time.Duration
	// DisconnectGrace is how long a dropped active player gets to
	// reconnect before their turn is skipped. Shorter than TurnBudget so
	// one dropout does not stall everyone for the full window.
	DisconnectGrace time.Duration

	// Bot pacing.
	BotThinkDelay    time.Duration
	BotStepInterval  time.Duration
	BotPostFireDelay time.Duration

	Logger *log.Logger
	Events logging.Publisher
}

func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		TurnBudget:        45 * time.Second,
		WatchdogGrace:     5 * time.Second,
		ProjectileTimeout: 20 * time.Second,
		RetreatTimeout:    8 * time.Second,
		DisconnectGrace:   12 * time.Second,
		BotThinkDelay:     1500 * time.Millisecond,
		BotStepInterval:   400 * time.Millisecond,
		BotPostFireDelay:  4 * time.Second,
	}
}

func (c CoordinatorConfig) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func (c CoordinatorConfig) events() logging.Publisher {
	if c.Events != nil {
		return c.Events
	}
	return logging.NopPublisher()
}
