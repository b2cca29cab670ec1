package server

import (
	"encoding/json"
	"time"
)

// Seat is one fixed position in the turn rotation. The order never changes
// once the session is initialized; the seat index doubles as the team
// number for unit-ownership partitioning.
type Seat struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	IsBot    bool   `json:"isBot"`
}

// InputEntry is one committed action in the authoritative replay log.
type InputEntry struct {
	PlayerIndex int    `json:"playerIndex"`
	Input       string `json:"input"`
}

// BallSnapshot is the last reported state of one unit. The array is
// index-partitioned across seats: index % numSeats == owner seat.
type BallSnapshot struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	HP    int     `json:"hp"`
	Alive bool    `json:"alive"`
}

// Session is the authoritative per-match state. Everything here is owned
// by exactly one coordinator goroutine; the struct itself has no locking.
type Session struct {
	MatchID   string `json:"matchId"`
	Seats     []Seat `json:"seats"`
	RngSeed   uint32 `json:"rngSeed"`
	TerrainID string `json:"terrainId"`

	CurrentTurn    int       `json:"currentTurn"`
	Phase          Phase     `json:"phase"`
	TurnDeadline   time.Time `json:"turnDeadline"`
	PhaseStartedAt time.Time `json:"phaseStartedAt"`

	// InputLog only ever grows; it is the replay log every client and the
	// bot planner key their determinism off.
	InputLog []InputEntry `json:"inputLog"`
	// TerrainLog entries are opaque client-owned ops ([kind,a,b,c]
	// arrays); the coordinator only compares lengths when merging.
	TerrainLog []json.RawMessage `json:"terrainLog"`
	Balls      []BallSnapshot    `json:"balls"`
}

func newSession(matchID string) *Session {
	return &Session{
		MatchID:    matchID,
		Phase:      PhaseAiming,
		InputLog:   make([]InputEntry, 0),
		TerrainLog: make([]json.RawMessage, 0),
	}
}

// initialized reports whether the roster has been populated.
func (s *Session) initialized() bool {
	return s != nil && len(s.Seats) > 0
}

// seatIndex resolves a player id to its seat, or -1.
func (s *Session) seatIndex(playerID string) int {
	if s == nil {
		return -1
	}
	for i, seat := range s.Seats {
		if seat.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// ownsUnit reports whether the seat controls the unit at ballIndex.
func (s *Session) ownsUnit(seatIndex, ballIndex int) bool {
	if s == nil || len(s.Seats) == 0 || ballIndex < 0 {
		return false
	}
	return ballIndex%len(s.Seats) == seatIndex
}

// activeSeat returns the seat whose turn it is.
func (s *Session) activeSeat() Seat {
	return s.Seats[s.CurrentTurn]
}

// progressed reports whether the match has moved past its initial state.
// A fresh match has all-zero ball placeholders; shipping those in a resync
// would stomp each client's own seeded spawn computation.
func (s *Session) progressed() bool {
	return s != nil && (len(s.InputLog) > 0 || s.CurrentTurn > 0)
}

// phaseDeadline derives the absolute deadline governing the current phase.
func (s *Session) phaseDeadline(cfg CoordinatorConfig) time.Time {
	switch s.Phase {
	case PhaseProjectile:
		return s.PhaseStartedAt.Add(cfg.ProjectileTimeout)
	case PhaseRetreat:
		return s.PhaseStartedAt.Add(cfg.RetreatTimeout)
	default:
		return s.TurnDeadline.Add(cfg.WatchdogGrace)
	}
}

// timeRemaining is the relative time left in the current phase, clamped at
// zero. Clients get relative durations so they need no clock sync.
func (s *Session) timeRemaining(cfg CoordinatorConfig, now time.Time) time.Duration {
	var deadline time.Time
	switch s.Phase {
	case PhaseProjectile:
		deadline = s.PhaseStartedAt.Add(cfg.ProjectileTimeout)
	case PhaseRetreat:
		deadline = s.PhaseStartedAt.Add(cfg.RetreatTimeout)
	default:
		deadline = s.TurnDeadline
	}
	remaining := deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// namesCSV and botsCSV render the roster the way the client's identity
// parser expects: comma-joined values, bots flagged "1"/"0".
func (s *Session) namesCSV() string {
	out := ""
	for i, seat := range s.Seats {
		if i > 0 {
			out += ","
		}
		out += seat.Name
	}
	return out
}

func (s *Session) botsCSV() string {
	out := ""
	for i, seat := range s.Seats {
		if i > 0 {
			out += ","
		}
		if seat.IsBot {
			out += "1"
		} else {
			out += "0"
		}
	}
	return out
}

// snapshotBalls copies the ball array for inclusion in outbound messages.
func (s *Session) snapshotBalls() []BallSnapshot {
	out := make([]BallSnapshot, len(s.Balls))
	copy(out, s.Balls)
	return out
}

// snapshotTerrain copies the terrain log for inclusion in outbound
// messages; never nil so it marshals as [] rather than null.
func (s *Session) snapshotTerrain() []json.RawMessage {
	out := make([]json.RawMessage, len(s.TerrainLog))
	copy(out, s.TerrainLog)
	return out
}
