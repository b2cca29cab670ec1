package server

import (
	"sort"
	"sync"

	"ballistic/server/internal/store"
)

// Manager owns the live coordinator per match. Coordinators are created
// lazily — on first init or on first connection to a match the store
// still remembers — and each runs its own actor goroutine.
type Manager struct {
	cfg   CoordinatorConfig
	store store.Store

	mu      sync.Mutex
	matches map[string]*Coordinator
}

func NewManager(cfg CoordinatorConfig, st store.Store) *Manager {
	return &Manager{
		cfg:     cfg,
		store:   st,
		matches: make(map[string]*Coordinator),
	}
}

// Get returns the coordinator for matchID, creating (and rehydrating)
// it if needed.
func (m *Manager) Get(matchID string) *Coordinator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.matches[matchID]; ok {
		return c
	}
	c := NewCoordinator(matchID, m.cfg, m.store)
	m.matches[matchID] = c
	return c
}

// Lookup returns the coordinator only when the match actually exists:
// either already live, or rehydratable from the store. A connection to a
// never-initialized match must be refused, not given a fresh shell — and
// the shell Get built to answer the question is torn down again, or every
// garbage match id would leave a coordinator goroutine behind.
func (m *Manager) Lookup(matchID string) (*Coordinator, bool) {
	c := m.Get(matchID)
	if c.Initialized() {
		return c, true
	}
	m.mu.Lock()
	if m.matches[matchID] == c && !c.Initialized() {
		delete(m.matches, matchID)
		m.mu.Unlock()
		c.Stop()
		return nil, false
	}
	m.mu.Unlock()
	return nil, false
}

// Init sets up the session for matchID. Safe to call repeatedly; only
// the first call populates the roster.
func (m *Manager) Init(matchID string, seats []Seat, rngSeed uint32, terrainID string) InitResult {
	return m.Get(matchID).Init(seats, rngSeed, terrainID)
}

// Diagnostics snapshots every live match, ordered by id.
func (m *Manager) Diagnostics() []Diagnostics {
	m.mu.Lock()
	coords := make([]*Coordinator, 0, len(m.matches))
	for _, c := range m.matches {
		coords = append(coords, c)
	}
	m.mu.Unlock()
	out := make([]Diagnostics, 0, len(coords))
	for _, c := range coords {
		out = append(out, c.Diagnostics())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out
}

// Close stops every coordinator and the backing store.
func (m *Manager) Close() {
	m.mu.Lock()
	coords := make([]*Coordinator, 0, len(m.matches))
	for _, c := range m.matches {
		coords = append(coords, c)
	}
	m.matches = make(map[string]*Coordinator)
	m.mu.Unlock()
	for _, c := range coords {
		c.Stop()
	}
	if m.store != nil {
		m.store.Close()
	}
}
