package ws

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	server "ballistic/server"
	"ballistic/server/internal/store"
)

func testServer(t *testing.T) (*httptest.Server, *server.Manager) {
	t.Helper()
	cfg := server.DefaultCoordinatorConfig()
	cfg.Logger = log.New(io.Discard, "", 0)
	manager := server.NewManager(cfg, store.NewMemoryStore())
	ts := httptest.NewServer(NewHandler(manager, cfg.Logger))
	t.Cleanup(func() {
		ts.Close()
		manager.Close()
	})
	return ts, manager
}

func wsURL(ts *httptest.Server, matchID, playerID string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "?match=" + matchID + "&id=" + playerID
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decode %q: %v", payload, err)
	}
	return msg
}

func initMatch(t *testing.T, manager *server.Manager) {
	t.Helper()
	seats := []server.Seat{
		{PlayerID: "p0", Name: "alpha"},
		{PlayerID: "p1", Name: "beta"},
	}
	if result := manager.Init("m1", seats, 42, "t1"); result != server.InitOK {
		t.Fatalf("init returned %q", result)
	}
}

func TestConnectReceivesCatchUp(t *testing.T) {
	ts, manager := testServer(t)
	initMatch(t, manager)

	conn := dial(t, wsURL(ts, "m1", "p0"))
	identity := readMessage(t, conn)
	if identity["type"] != "identity" || identity["myPlayerIndex"] != float64(0) {
		t.Fatalf("expected identity first, got %v", identity)
	}
	sync := readMessage(t, conn)
	if sync["type"] != "terrain_sync" {
		t.Fatalf("expected terrain_sync second, got %v", sync)
	}
	resync := readMessage(t, conn)
	if resync["type"] != "game_resync" || resync["phase"] != "aiming" {
		t.Fatalf("expected game_resync third, got %v", resync)
	}
}

func TestUnknownMatchIsRefused(t *testing.T) {
	ts, _ := testServer(t)

	conn := dial(t, wsURL(ts, "never-made", "p0"))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok || closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func TestUnknownPlayerIsRefused(t *testing.T) {
	ts, manager := testServer(t)
	initMatch(t, manager)

	conn := dial(t, wsURL(ts, "m1", "stranger"))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok || closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func TestMissingQueryParamsRejected(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "?match=m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestMessagesFlowBetweenPlayers(t *testing.T) {
	ts, manager := testServer(t)
	initMatch(t, manager)

	p0 := dial(t, wsURL(ts, "m1", "p0"))
	p1 := dial(t, wsURL(ts, "m1", "p1"))
	// Drain each player's catch-up sequence.
	for i := 0; i < 3; i++ {
		readMessage(t, p0)
		readMessage(t, p1)
	}
	// p0 learns about p1's arrival.
	if msg := readMessage(t, p0); msg["type"] != "player_connected" {
		t.Fatalf("expected player_connected, got %v", msg)
	}

	err := p0.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"input","input":"{\"Walk\":{\"dir\":1}}"}`))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	relay := readMessage(t, p1)
	if relay["type"] != "input" || relay["turnIndex"] != float64(0) {
		t.Fatalf("expected input relay, got %v", relay)
	}
}
