package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"ballistic/server/internal/store"
	"ballistic/server/logging"
	matchlog "ballistic/server/logging/match"
	networklog "ballistic/server/logging/network"
)

// Coordinator is the single-writer actor for one match. Every mutation of
// the session — inbound messages, watchdog pokes, deferred bot steps —
// funnels through the inbox and runs on one goroutine, so the state
// machine never sees two writers.
type Coordinator struct {
	matchID  string
	cfg      CoordinatorConfig
	logger   *log.Logger
	events   logging.Publisher
	store    store.Store
	registry *Registry

	// now and schedule are injectable for tests; schedule returns a
	// cancel func, mirroring time.AfterFunc+Stop.
	now      func() time.Time
	schedule func(d time.Duration, fn func()) func()

	inbox    chan func()
	stopc    chan struct{}
	stopOnce sync.Once

	sess *Session
	wd   *watchdog
	// epoch increments on every turn rotation and restart. Deferred bot
	// callbacks capture it and silently no-op when it has moved on, so a
	// watchdog advance during the bot's thinking delay can never be
	// double-advanced by the stale chain.
	epoch uint64
}

// NewCoordinator builds the actor for matchID and starts its run loop.
// If the store holds a record for the match it is rehydrated before any
// message is accepted.
func NewCoordinator(matchID string, cfg CoordinatorConfig, st store.Store) *Coordinator {
	c := &Coordinator{
		matchID:  matchID,
		cfg:      cfg,
		logger:   cfg.logger(),
		events:   logging.WithMatch(cfg.events(), matchID),
		store:    st,
		registry: newRegistry(),
		now:      time.Now,
		schedule: func(d time.Duration, fn func()) func() {
			t := time.AfterFunc(d, fn)
			return func() { t.Stop() }
		},
		inbox: make(chan func(), 64),
		stopc: make(chan struct{}),
		sess:  newSession(matchID),
	}
	c.wd = &watchdog{c: c}
	c.rehydrate()
	go c.run()
	return c
}

func (c *Coordinator) run() {
	for {
		select {
		case fn := <-c.inbox:
			fn()
		case <-c.stopc:
			return
		}
	}
}

// post serializes fn onto the actor goroutine.
func (c *Coordinator) post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.stopc:
	}
}

// call posts fn and waits for it to finish; used by the synchronous
// entry points (init, connect).
func (c *Coordinator) call(fn func()) {
	done := make(chan struct{})
	c.post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-c.stopc:
	}
}

// postAfter schedules fn to run on the actor goroutine after d.
func (c *Coordinator) postAfter(d time.Duration, fn func()) func() {
	return c.schedule(d, func() { c.post(fn) })
}

// Stop halts the run loop. Pending inbox work is abandoned; the durable
// record already reflects the last completed mutation.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopc)
		if c.wd.cancel != nil {
			c.wd.cancel()
		}
	})
}

// rehydrate loads the persisted record, if any, so a process restart
// resumes mid-match rather than resetting to turn zero.
func (c *Coordinator) rehydrate() {
	if c.store == nil {
		return
	}
	payload, err := c.store.Load(context.Background(), c.matchID)
	if err != nil {
		if err != store.ErrNotFound {
			c.logger.Printf("[store] match=%s load failed: %v", c.matchID, err)
		}
		return
	}
	sess := newSession(c.matchID)
	if err := json.Unmarshal(payload, sess); err != nil {
		c.logger.Printf("[store] match=%s corrupt record discarded: %v", c.matchID, err)
		return
	}
	sess.MatchID = c.matchID
	c.sess = sess
	if c.sess.initialized() {
		// Wall-clock deadlines do not survive downtime; restart the phase
		// clock so the active seat gets a full window after recovery.
		now := c.now()
		c.sess.PhaseStartedAt = now
		c.sess.TurnDeadline = now.Add(c.cfg.TurnBudget)
		c.wd.Arm(c.sess.phaseDeadline(c.cfg))
		c.maybeStartBotTurn()
	}
}

// persist writes the authoritative record. Failures are logged and
// swallowed: in-memory state stays authoritative for the rest of the
// process lifetime even when the durable write is lost.
func (c *Coordinator) persist() {
	if c.store == nil {
		return
	}
	payload, err := json.Marshal(c.sess)
	if err != nil {
		c.logger.Printf("[store] match=%s marshal failed: %v", c.matchID, err)
		return
	}
	if err := c.store.Save(context.Background(), c.matchID, payload); err != nil {
		c.logger.Printf("[store] match=%s save failed: %v", c.matchID, err)
	}
}

// InitResult reports the outcome of the one-shot initialization call.
type InitResult string

const (
	InitOK                 InitResult = "ok"
	InitAlreadyInitialized InitResult = "already_initialized"
	InitInvalid            InitResult = "invalid"
)

// Init populates the session exactly once. Calling it again — including
// concurrently, since the check runs on the actor goroutine — is a no-op
// that reports the session was already set up.
func (c *Coordinator) Init(seats []Seat, rngSeed uint32, terrainID string) InitResult {
	result := InitInvalid
	c.call(func() {
		result = c.init(seats, rngSeed, terrainID)
	})
	return result
}

func (c *Coordinator) init(seats []Seat, rngSeed uint32, terrainID string) InitResult {
	if len(seats) == 0 {
		return InitInvalid
	}
	if c.sess.initialized() {
		return InitAlreadyInitialized
	}
	now := c.now()
	c.sess.Seats = append([]Seat(nil), seats...)
	c.sess.RngSeed = rngSeed
	c.sess.TerrainID = terrainID
	c.sess.CurrentTurn = 0
	c.sess.Phase = PhaseAiming
	c.sess.PhaseStartedAt = now
	c.sess.TurnDeadline = now.Add(c.cfg.TurnBudget)
	c.sess.Balls = make([]BallSnapshot, len(seats))
	c.persist()
	matchlog.Initialized(context.Background(), c.events,
		logging.EntityRef{ID: c.matchID, Kind: logging.EntityKindMatch},
		matchlog.InitializedPayload{Players: len(seats), Seed: rngSeed})
	c.armForCurrentSeat()
	c.maybeStartBotTurn()
	return InitOK
}

// Connect attaches a live channel for playerID and sends the catch-up
// payload. Returns the channel handle and false when the player is not
// part of this match.
func (c *Coordinator) Connect(playerID string, conn Conn) (handle string, ok bool) {
	c.call(func() {
		handle, ok = c.connect(playerID, conn)
	})
	return handle, ok
}

func (c *Coordinator) connect(playerID string, conn Conn) (string, bool) {
	idx := c.sess.seatIndex(playerID)
	if idx < 0 {
		return "", false
	}
	handle, superseded := c.registry.Attach(playerID, conn)
	c.broadcastExcept(playerID, presenceMessage{
		Ver:         ProtocolVersion,
		Type:        "player_connected",
		PlayerIndex: idx,
		PlayerID:    playerID,
	})
	networklog.PlayerConnected(context.Background(), c.events,
		logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer},
		networklog.PresencePayload{PlayerIndex: idx, Reconnect: superseded})
	c.sendCatchUp(playerID, idx)
	return handle, true
}

// Disconnect detaches the channel identified by handle. Stale handles
// (from a superseded connection) are ignored.
func (c *Coordinator) Disconnect(playerID, handle string) {
	c.post(func() {
		c.disconnect(playerID, handle)
	})
}

func (c *Coordinator) disconnect(playerID, handle string) {
	if !c.registry.Detach(playerID, handle) {
		return
	}
	idx := c.sess.seatIndex(playerID)
	c.broadcastExcept(playerID, presenceMessage{
		Ver:         ProtocolVersion,
		Type:        "player_disconnected",
		PlayerIndex: idx,
		PlayerID:    playerID,
	})
	networklog.PlayerDisconnected(context.Background(), c.events,
		logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer},
		networklog.PresencePayload{PlayerIndex: idx})
	// A dropped active player gets a short reconnect window instead of
	// stalling everyone for the full turn budget.
	if c.sess.initialized() && c.sess.Phase == PhaseAiming && idx == c.sess.CurrentTurn {
		c.wd.Arm(c.now().Add(c.cfg.DisconnectGrace))
	}
}

// HandleMessage dispatches one inbound message from playerID. Malformed
// payloads, unknown types, and unauthorized actions are dropped silently:
// they are noise from stale or misbehaving clients, not errors.
func (c *Coordinator) HandleMessage(playerID string, payload []byte) {
	c.post(func() {
		c.handleMessage(playerID, payload)
	})
}

func (c *Coordinator) handleMessage(playerID string, payload []byte) {
	if !c.sess.initialized() {
		return
	}
	senderIdx := c.sess.seatIndex(playerID)
	if senderIdx < 0 {
		return
	}
	var msg clientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Printf("[ws] match=%s discarding malformed message from %s: %v", c.matchID, playerID, err)
		return
	}
	switch msg.Type {
	case "input":
		c.handleInput(senderIdx, msg.Input)
	case "aim":
		if msg.Aim != nil {
			c.handleAim(senderIdx, *msg.Aim)
		}
	case "end_turn":
		c.handleEndTurn(senderIdx)
	case "retreat_start":
		c.handleRetreatStart(senderIdx)
	case "terrain_damages":
		c.handleTerrainDamages(senderIdx, msg.Log)
	case "pos_update":
		c.handlePosUpdate(senderIdx, msg)
	case "ball_state":
		c.handleBallState(senderIdx, msg.Balls)
	case "restart":
		if msg.Seed != nil {
			c.handleRestart(senderIdx, *msg.Seed)
		}
	default:
		c.logger.Printf("[ws] match=%s unknown message type %q from %s", c.matchID, msg.Type, playerID)
	}
}

// Diagnostics is a point-in-time view for the diagnostics endpoint.
type Diagnostics struct {
	MatchID       string `json:"matchId"`
	Phase         Phase  `json:"phase"`
	CurrentTurn   int    `json:"currentTurn"`
	Seats         int    `json:"seats"`
	Online        int    `json:"online"`
	InputLogLen   int    `json:"inputLogLen"`
	TerrainLogLen int    `json:"terrainLogLen"`
}

func (c *Coordinator) Diagnostics() Diagnostics {
	var d Diagnostics
	c.call(func() {
		d = Diagnostics{
			MatchID:       c.matchID,
			Phase:         c.sess.Phase,
			CurrentTurn:   c.sess.CurrentTurn,
			Seats:         len(c.sess.Seats),
			Online:        c.registry.onlineCount(),
			InputLogLen:   len(c.sess.InputLog),
			TerrainLogLen: len(c.sess.TerrainLog),
		}
	})
	return d
}

// Initialized reports whether the roster is populated. Used by transport
// handlers to reject connections to matches that were never set up.
func (c *Coordinator) Initialized() bool {
	ok := false
	c.call(func() { ok = c.sess.initialized() })
	return ok
}

// --- broadcast plumbing -------------------------------------------------

func (c *Coordinator) marshal(payload any) ([]byte, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Printf("[ws] match=%s failed to marshal %T: %v", c.matchID, payload, err)
		return nil, false
	}
	return data, true
}

// broadcast sends payload to every connected player. Write failures
// detach the offending channel after the loop so the registry map is
// never mutated mid-iteration.
func (c *Coordinator) broadcast(payload any) {
	c.broadcastExcept("", payload)
}

func (c *Coordinator) broadcastExcept(skipPlayerID string, payload any) {
	data, ok := c.marshal(payload)
	if !ok {
		return
	}
	type failure struct{ playerID, handle string }
	var failed []failure
	for id, sub := range c.registry.subs {
		if id == skipPlayerID {
			continue
		}
		if err := sub.write(data); err != nil {
			c.logger.Printf("[ws] match=%s failed to send to %s: %v", c.matchID, id, err)
			failed = append(failed, failure{playerID: id, handle: sub.handle})
		}
	}
	for _, f := range failed {
		c.dropSubscriber(f.playerID, f.handle)
	}
}

// sendTo writes payload to a single player; returns false when the player
// is offline or the write failed (in which case the channel is dropped).
func (c *Coordinator) sendTo(playerID string, payload any) bool {
	sub, ok := c.registry.subscriberFor(playerID)
	if !ok {
		return false
	}
	data, ok := c.marshal(payload)
	if !ok {
		return false
	}
	if err := sub.write(data); err != nil {
		c.logger.Printf("[ws] match=%s failed to send to %s: %v", c.matchID, playerID, err)
		c.dropSubscriber(playerID, sub.handle)
		return false
	}
	return true
}

// dropSubscriber mirrors Disconnect but runs inline on the actor
// goroutine in response to a failed write.
func (c *Coordinator) dropSubscriber(playerID, handle string) {
	if !c.registry.Detach(playerID, handle) {
		return
	}
	idx := c.sess.seatIndex(playerID)
	c.broadcastExcept(playerID, presenceMessage{
		Ver:         ProtocolVersion,
		Type:        "player_disconnected",
		PlayerIndex: idx,
		PlayerID:    playerID,
	})
	if c.sess.initialized() && c.sess.Phase == PhaseAiming && idx == c.sess.CurrentTurn {
		c.wd.Arm(c.now().Add(c.cfg.DisconnectGrace))
	}
}
