package server

import "encoding/json"

// clientMessage is the single flat decode target for every inbound kind;
// the type tag selects which fields are meaningful. Unknown tags are
// dropped in one place rather than being decodable into anything.
type clientMessage struct {
	Ver  int    `json:"ver,omitempty"`
	Type string `json:"type"`

	// input
	Input string `json:"input,omitempty"`
	// aim
	Aim *float64 `json:"aim,omitempty"`
	// terrain_damages
	Log []json.RawMessage `json:"log,omitempty"`
	// pos_update
	BI *int     `json:"bi,omitempty"`
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
	VX *float64 `json:"vx,omitempty"`
	VY *float64 `json:"vy,omitempty"`
	// ball_state
	Balls []ballUpdate `json:"balls,omitempty"`
	// restart
	Seed *uint32 `json:"seed,omitempty"`
}

// ballUpdate is a partial unit snapshot: only fields present in the
// message overwrite stored state, so a position stream never zeroes hp.
type ballUpdate struct {
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	VX    *float64 `json:"vx,omitempty"`
	VY    *float64 `json:"vy,omitempty"`
	HP    *int     `json:"hp,omitempty"`
	Alive *bool    `json:"alive,omitempty"`
}

type identityMessage struct {
	Ver           int    `json:"ver"`
	Type          string `json:"type"`
	MyPlayerIndex int    `json:"myPlayerIndex"`
	PlayerNames   string `json:"playerNames"`
	PlayerBots    string `json:"playerBots"`
	RngSeed       uint32 `json:"rngSeed"`
	TerrainID     string `json:"terrainId,omitempty"`
}

type terrainSyncMessage struct {
	Ver  int               `json:"ver"`
	Type string            `json:"type"`
	Log  []json.RawMessage `json:"log"`
}

type gameResyncMessage struct {
	Ver                 int            `json:"ver"`
	Type                string         `json:"type"`
	Phase               Phase          `json:"phase"`
	CurrentTurnIndex    int            `json:"currentTurnIndex"`
	TurnTimeRemainingMs int64          `json:"turnTimeRemainingMs"`
	Balls               []BallSnapshot `json:"balls,omitempty"`
}

type stateMessage struct {
	Ver                 int    `json:"ver"`
	Type                string `json:"type"`
	CurrentTurnIndex    int    `json:"currentTurnIndex"`
	Phase               Phase  `json:"phase"`
	TurnEndTime         int64  `json:"turnEndTime"`
	TurnTimeRemainingMs int64  `json:"turnTimeRemainingMs"`
	ServerTime          int64  `json:"serverTime"`
}

type inputRelayMessage struct {
	Ver       int    `json:"ver"`
	Type      string `json:"type"`
	TurnIndex int    `json:"turnIndex"`
	Input     string `json:"input"`
}

type aimRelayMessage struct {
	Ver       int     `json:"ver"`
	Type      string  `json:"type"`
	TurnIndex int     `json:"turnIndex"`
	Aim       float64 `json:"aim"`
}

type turnAdvancedMessage struct {
	Ver                 int               `json:"ver"`
	Type                string            `json:"type"`
	TurnIndex           int               `json:"turnIndex"`
	Log                 []json.RawMessage `json:"log"`
	Balls               []BallSnapshot    `json:"balls"`
	TurnTimeRemainingMs int64             `json:"turnTimeRemainingMs"`
}

type forceAdvanceMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type presenceMessage struct {
	Ver         int    `json:"ver"`
	Type        string `json:"type"`
	PlayerIndex int    `json:"playerIndex"`
	PlayerID    string `json:"playerId"`
}

type restartMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Seed uint32 `json:"seed"`
}
