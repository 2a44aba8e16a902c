package live

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/handlords/rng"
	"github.com/brensch/handlords/sim"
)

func testHub(t *testing.T) (*Hub, string) {
	t.Helper()
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Cleanup(h.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
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

func waitSpectators(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Spectators() != want {
		if time.Now().After(deadline) {
			t.Fatalf("spectators = %d, want %d", h.Spectators(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesAllSpectators(t *testing.T) {
	h, url := testHub(t)
	a := dial(t, url)
	b := dial(t, url)
	waitSpectators(t, h, 2)

	e := sim.New(rng.NewLFSR(0))
	e.Start()
	e.Step()
	h.Broadcast(e.Snapshot())

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var snap sim.Snapshot
		if err := json.Unmarshal(msg, &snap); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if snap.Tick != 1 || snap.Phase != "Playing" {
			t.Fatalf("snapshot = %+v", snap)
		}
	}
}

func TestDeadSpectatorIsDropped(t *testing.T) {
	h, url := testHub(t)
	conn := dial(t, url)
	waitSpectators(t, h, 1)

	conn.Close()

	// The read pump notices the close; broadcasts keep working either way.
	waitSpectators(t, h, 0)
	h.Broadcast(map[string]int{"tick": 1})
}
