package bot

import "math"

// The integrator follows the shape of the client's shell physics: fixed
// timestep, per-tick gravity, per-tick velocity decay. The constants are
// this server's own tuning of that model — the bot only needs its predicted
// arc to track the client's closely enough for the aim search; if the
// client's gravity, decay, or timestep change, retune these to match.
const (
	simTimestep   = 1.0 / 60.0 // seconds per integration tick
	gravityY      = 180.0      // px/s^2, downward (screen y grows down)
	velocityDecay = 0.999      // per-tick air resistance factor
	speedPerPower = 9.0        // px/s of muzzle speed per power percent
	maxSimSteps   = 900
	floorY        = 4000.0 // sanity floor; below this the shot is lost
)

// Simulate integrates a ballistic shot from (originX, originY) at
// angle (radians, positive aims up) and power (percent), and returns the
// y-coordinate where the trajectory first crosses targetX. The crossing is
// interpolated between the bracketing ticks. ok is false when the shot
// never reaches targetX within the step budget or falls below the floor.
func Simulate(originX, originY, angle, power, targetX float64) (landingY float64, ok bool) {
	speed := power * speedPerPower
	vx := math.Cos(angle) * speed
	vy := -math.Sin(angle) * speed

	x, y := originX, originY
	for i := 0; i < maxSimSteps; i++ {
		vy += gravityY * simTimestep
		vx *= velocityDecay
		vy *= velocityDecay

		nextX := x + vx*simTimestep
		nextY := y + vy*simTimestep

		if crossed(x, nextX, targetX) {
			t := 0.0
			if nextX != x {
				t = (targetX - x) / (nextX - x)
			}
			return y + (nextY-y)*t, true
		}
		if nextY > floorY {
			return 0, false
		}
		x, y = nextX, nextY
	}
	return 0, false
}

func crossed(from, to, target float64) bool {
	if from <= to {
		return from <= target && target <= to
	}
	return to <= target && target <= from
}
