package bot

// RNG is the linear-congruential generator shared with the client
// simulation. Every client replays the match from the same seed and input
// log, so bot decisions must draw from a stream any replica can
// reconstruct: the state is derived from (match seed, turn index, input
// log length) and nothing else.
type RNG struct {
	state uint32
}

const (
	lcgMul = 1103515245
	lcgAdd = 12345
)

func lcg(s uint32) uint32 {
	return s*lcgMul + lcgAdd
}

// NewRNG derives a generator for one bot decision point.
func NewRNG(seed uint32, turnIndex, logLen int) *RNG {
	s := lcg(seed ^ uint32(turnIndex)*0x9e3779b9)
	s = lcg(s ^ uint32(logLen)*0x85ebca6b)
	return &RNG{state: s}
}

// Next advances the generator and returns the raw state.
func (r *RNG) Next() uint32 {
	r.state = lcg(r.state)
	return r.state
}

// Float returns a value in [0, 1), using the high bits the way the client
// does (low LCG bits cycle too fast to be useful).
func (r *RNG) Float() float64 {
	return float64(r.Next()>>16) / 65536.0
}

// Range returns a value in [lo, hi).
func (r *RNG) Range(lo, hi float64) float64 {
	return lo + r.Float()*(hi-lo)
}

// Intn returns a value in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	return int(r.Float() * float64(n))
}
