// Package ws carries the realtime channel: one websocket per player per
// match, upgraded here and then driven by the match coordinator.
package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	server "ballistic/server"
)

// Handler upgrades /ws requests and pumps inbound frames into the match
// coordinator. The coordinator owns all writes; this goroutine only reads.
type Handler struct {
	Manager  *server.Manager
	Logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(manager *server.Manager, logger *log.Logger) *Handler {
	return &Handler{
		Manager: manager,
		Logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("match")
	playerID := r.URL.Query().Get("id")
	if matchID == "" || playerID == "" {
		http.Error(w, "missing match or id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logf("upgrade failed for %s: %v", playerID, err)
		return
	}

	coordinator, ok := h.Manager.Lookup(matchID)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown match")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	handle, ok := coordinator.Connect(playerID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			coordinator.Disconnect(playerID, handle)
			return
		}
		coordinator.HandleMessage(playerID, payload)
	}
}

func (h *Handler) logf(format string, args ...any) {
	if h.Logger != nil {
		h.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
