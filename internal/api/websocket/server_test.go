package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/api/websocket"
)

func startServer(t *testing.T) (*websocket.Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(websocket.NewServer(hub, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/advstats" + query
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *websocket.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPublishRowsReachesSubscribers(t *testing.T) {
	hub, srv := startServer(t)
	conn := dial(t, srv, "?game_id=1001")
	waitForClients(t, hub, 1)

	rows := []advstats.PlayerGameRow{
		{GameID: 1001, PlayerID: 10, Slice: advstats.Slice5v5, CalcVersion: "v1"},
		{GameID: 1001, PlayerID: 11, Slice: advstats.Slice5v5, CalcVersion: "v1"},
	}
	if err := hub.PublishRows(context.Background(), "run-1", rows); err != nil {
		t.Fatalf("PublishRows: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg websocket.RowsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != websocket.MessageTypeRows || msg.RunID != "run-1" || msg.StateKey != "5v5" || len(msg.Rows) != 2 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestSubscribersOnlyReceiveTheirGame(t *testing.T) {
	hub, srv := startServer(t)
	other := dial(t, srv, "?game_id=2002")
	all := dial(t, srv, "")
	waitForClients(t, hub, 2)

	rows := []advstats.PlayerGameRow{{GameID: 1001, PlayerID: 10, Slice: advstats.SliceAll, CalcVersion: "v1"}}
	if err := hub.PublishRows(context.Background(), "run-1", rows); err != nil {
		t.Fatalf("PublishRows: %v", err)
	}

	all.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := all.ReadMessage(); err != nil {
		t.Fatalf("unfiltered client should receive the batch: %v", err)
	}

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Fatal("client of another game should not receive the batch")
	}
}

func TestInvalidGameIDIsRejected(t *testing.T) {
	_, srv := startServer(t)
	resp, err := http.Get(srv.URL + "/ws/advstats?game_id=abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	_, srv := startServer(t)
	resp, err := http.Get(srv.URL + "/ws/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected health body: %v", body)
	}
}
