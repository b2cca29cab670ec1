package bot

import (
	"fmt"
	"math"
)

// Unit is one controllable ball as the coordinator knows it.
type Unit struct {
	X     float64
	Y     float64
	HP    int
	Alive bool
}

// Plan is a complete bot turn: optional preparatory walking followed by a
// single shot. The shot is encoded as the same input payload a human
// client would send, so the relay path and the replay log treat bot turns
// and human turns identically.
type Plan struct {
	WalkDir      int // -1, 0, +1
	WalkSteps    int
	AngleDeg     float64
	PowerPercent float64
	Weapon       string
}

const (
	finishHPThreshold = 30    // prefer executing a nearly-dead enemy
	finishRange       = 420.0 // ...but only within this distance
	walkThresholdBase = 320.0 // farther than this and the bot closes in first
	walkStepPixels    = 18.0  // approximate displacement per walk step
	maxWalkSteps      = 3
	aimTolerance      = 60.0 // max |landingY - targetY| before falling back
	fallbackAngleUp   = 0.25 // radians above the straight bearing
	fallbackPower     = 80.0
	defaultWeapon     = "Bazooka"
)

// Upward-biased angle offsets relative to the straight-line bearing:
// gravity drops the shell, so candidates mostly aim above the target.
var aimOffsets = [...]float64{-0.05, 0.0, 0.08, 0.16, 0.26, 0.38, 0.52, 0.68}

var powerLevels = [...]float64{40, 55, 70, 85, 100}

// PlanTurn computes the bot's action for the current turn. units is the
// full index-partitioned ball array (index % numPlayers == owner seat).
// ok is false when the bot has no alive unit or no alive enemy, in which
// case the turn should simply end.
func PlanTurn(seed uint32, turnIndex, logLen int, units []Unit, numPlayers, seatIndex int) (Plan, bool) {
	if numPlayers <= 0 || seatIndex < 0 || seatIndex >= numPlayers {
		return Plan{}, false
	}
	rng := NewRNG(seed, turnIndex, logLen)

	shooterIdx := -1
	for i, u := range units {
		if i%numPlayers == seatIndex && u.Alive {
			shooterIdx = i
			break
		}
	}
	if shooterIdx < 0 {
		return Plan{}, false
	}
	shooter := units[shooterIdx]

	targetIdx := selectTarget(units, numPlayers, seatIndex, shooter)
	if targetIdx < 0 {
		return Plan{}, false
	}
	target := units[targetIdx]

	plan := Plan{Weapon: defaultWeapon}

	// Close the distance a little when the target is far. The post-walk
	// position is approximated with a fixed per-step displacement rather
	// than re-simulating the walk.
	dx := target.X - shooter.X
	threshold := walkThresholdBase + rng.Range(0, 80)
	if math.Abs(dx) > threshold {
		plan.WalkDir = 1
		if dx < 0 {
			plan.WalkDir = -1
		}
		excess := math.Abs(dx) - walkThresholdBase
		steps := int(excess / walkStepPixels)
		if steps > maxWalkSteps {
			steps = maxWalkSteps
		}
		plan.WalkSteps = steps
		shooter.X += float64(plan.WalkDir*plan.WalkSteps) * walkStepPixels
	}

	angle, power, found := searchAim(shooter.X, shooter.Y, target.X, target.Y)
	if !found {
		// Wild best candidate: take the rough arcing shot the client's
		// own fallback uses instead of committing to it.
		angle = bearingUp(shooter.X, shooter.Y, target.X, target.Y) + fallbackAngleUp + rng.Range(-0.05, 0.05)
		power = fallbackPower
	}
	angle += rng.Range(-0.03, 0.03)

	plan.AngleDeg = round2(angle * 180.0 / math.Pi)
	plan.PowerPercent = round2(power)
	return plan, true
}

// FireInput renders the plan's shot as the client input payload.
func (p Plan) FireInput() string {
	return fmt.Sprintf(`{"Fire":{"angle_deg":%.2f,"power_percent":%.2f,"weapon":%q}}`, p.AngleDeg, p.PowerPercent, p.Weapon)
}

// WalkInput renders one preparatory walk step.
func (p Plan) WalkInput() string {
	return fmt.Sprintf(`{"Walk":{"dir":%d}}`, p.WalkDir)
}

func selectTarget(units []Unit, numPlayers, seatIndex int, shooter Unit) int {
	bestFinish, bestFinishDist := -1, math.MaxFloat64
	bestNear, bestNearDist := -1, math.MaxFloat64
	for i, u := range units {
		if i%numPlayers == seatIndex || !u.Alive {
			continue
		}
		d := math.Hypot(u.X-shooter.X, u.Y-shooter.Y)
		if u.HP <= finishHPThreshold && d <= finishRange && d < bestFinishDist {
			bestFinish, bestFinishDist = i, d
		}
		if d < bestNearDist {
			bestNear, bestNearDist = i, d
		}
	}
	if bestFinish >= 0 {
		return bestFinish
	}
	return bestNear
}

// searchAim grid-searches power levels and angle offsets, keeping the
// candidate whose simulated landing y is closest to the target's y.
func searchAim(sx, sy, tx, ty float64) (angle, power float64, ok bool) {
	bearing := bearingUp(sx, sy, tx, ty)
	bestErr := math.MaxFloat64
	for _, p := range powerLevels {
		for _, off := range aimOffsets {
			a := bearing + off
			landingY, hit := Simulate(sx, sy, a, p, tx)
			if !hit {
				continue
			}
			if err := math.Abs(landingY - ty); err < bestErr {
				bestErr = err
				angle, power = a, p
			}
		}
	}
	return angle, power, bestErr <= aimTolerance
}

// bearingUp is the straight-line angle to the target with up positive
// (screen y grows down, so the vertical term is negated).
func bearingUp(sx, sy, tx, ty float64) float64 {
	return math.Atan2(sy-ty, tx-sx)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
