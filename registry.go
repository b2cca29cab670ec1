package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the write side of one player channel. *websocket.Conn satisfies
// it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// subscriber wraps a live channel with a write mutex-free single-writer
// discipline: all writes happen on the coordinator goroutine, so only the
// handle id and deadline bookkeeping live here.
type subscriber struct {
	handle   string
	playerID string
	conn     Conn
}

func (s *subscriber) write(data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Registry maps player ids to their single live channel. At most one
// handle per player: a newer connection supersedes an older one. The
// registry is owned by the coordinator goroutine and needs no locking.
type Registry struct {
	subs map[string]*subscriber
}

func newRegistry() *Registry {
	return &Registry{subs: make(map[string]*subscriber)}
}

// Attach registers conn for playerID, closing any prior channel. Returns
// the handle id for the new channel and whether this replaced a live one.
func (r *Registry) Attach(playerID string, conn Conn) (handle string, superseded bool) {
	if existing, ok := r.subs[playerID]; ok {
		existing.conn.Close()
		superseded = true
	}
	handle = uuid.NewString()
	r.subs[playerID] = &subscriber{handle: handle, playerID: playerID, conn: conn}
	return handle, superseded
}

// Detach removes the channel identified by handle. A close notification
// from a superseded channel carries a stale handle and is ignored, so a
// reconnect can never be torn down by its predecessor's shutdown.
func (r *Registry) Detach(playerID, handle string) bool {
	sub, ok := r.subs[playerID]
	if !ok || sub.handle != handle {
		return false
	}
	delete(r.subs, playerID)
	sub.conn.Close()
	return true
}

// Online reports whether the player currently has a live channel.
func (r *Registry) Online(playerID string) bool {
	_, ok := r.subs[playerID]
	return ok
}

func (r *Registry) subscriberFor(playerID string) (*subscriber, bool) {
	sub, ok := r.subs[playerID]
	return sub, ok
}

// onlineCount is used by diagnostics.
func (r *Registry) onlineCount() int {
	return len(r.subs)
}
