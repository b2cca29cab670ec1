// Package net exposes the coordinator's HTTP surface: match setup,
// health, and diagnostics. The realtime channel lives in net/ws.
package net

import (
	"encoding/json"
	"log"
	"net/http"

	server "ballistic/server"
)

type initRequest struct {
	MatchID     string      `json:"matchId"`
	PlayerOrder []seatEntry `json:"playerOrder"`
	RngSeed     uint32      `json:"rngSeed"`
	TerrainID   string      `json:"terrainId"`
}

type seatEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	IsBot    bool   `json:"isBot"`
}

type initResponse struct {
	Status string `json:"status"`
}

// API bundles the HTTP handlers around one manager.
type API struct {
	Manager *server.Manager
	Logger  *log.Logger
}

// Register attaches the handlers to mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/init", a.handleInit)
	mux.HandleFunc("/health", a.handleHealth)
	mux.HandleFunc("/diagnostics", a.handleDiagnostics)
}

func (a *API) handleInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req initRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.MatchID == "" || len(req.PlayerOrder) == 0 {
		http.Error(w, "matchId and playerOrder are required", http.StatusBadRequest)
		return
	}
	seats := make([]server.Seat, len(req.PlayerOrder))
	for i, entry := range req.PlayerOrder {
		if entry.PlayerID == "" {
			http.Error(w, "every seat needs a playerId", http.StatusBadRequest)
			return
		}
		seats[i] = server.Seat{PlayerID: entry.PlayerID, Name: entry.Name, IsBot: entry.IsBot}
	}
	result := a.Manager.Init(req.MatchID, seats, req.RngSeed, req.TerrainID)
	if result == server.InitInvalid {
		http.Error(w, "invalid roster", http.StatusBadRequest)
		return
	}
	a.logf("[http] init match=%s players=%d status=%s", req.MatchID, len(seats), result)
	writeJSON(w, initResponse{Status: string(result)})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (a *API) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"matches": a.Manager.Diagnostics()})
}

func (a *API) logf(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}
