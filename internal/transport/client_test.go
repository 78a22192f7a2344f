package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-bingo/internal/game"
	"go-bingo/internal/reconnect"

	"github.com/gorilla/websocket"
)

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func nextEvent(t *testing.T, c *Client) game.Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func TestClient_RoundTripAndRedial(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan Envelope, 4)
	userIDs := make(chan string, 4)
	conns := make(chan *websocket.Conn, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		userIDs <- r.URL.Query().Get("userId")
		conns <- conn

		data, _ := json.Marshal(game.NumberCalled{Number: 7, Letter: "B", CallNumber: 1})
		frame, _ := json.Marshal(Envelope{Type: game.EventNumberCalled, Data: data})
		conn.WriteMessage(websocket.TextMessage, frame)

		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			received <- env
		}
	}))
	defer srv.Close()

	cfg := DefaultConfig(wsURL(srv))
	cfg.UserID = "u1"
	client := NewClient(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	ev := nextEvent(t, client)
	if nc, ok := ev.(game.NumberCalled); !ok || nc.Number != 7 {
		t.Fatalf("expected numberCalled 7, got %#v", ev)
	}
	if id := <-userIDs; id != "u1" {
		t.Errorf("expected userId u1 in dial, got %q", id)
	}

	if err := client.Send(ctx, game.SelectCard{CardNumber: 42, GameID: "g1"}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	select {
	case env := <-received:
		if env.Type != game.IntentSelectCard {
			t.Errorf("expected selectCard, got %s", env.Type)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the intent")
	}

	// Drop the connection from the server side.
	(<-conns).Close()
	if _, ok := nextEvent(t, client).(game.Disconnected); !ok {
		t.Fatal("expected a disconnect event")
	}
	if _, ok := nextEvent(t, client).(game.Reconnected); !ok {
		t.Fatal("expected a reconnect event")
	}
	if _, ok := nextEvent(t, client).(game.NumberCalled); !ok {
		t.Fatal("expected traffic on the new connection")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestClient_DialFailuresReported(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	cfg := DefaultConfig(url)
	cfg.Policy = reconnect.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	client := NewClient(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	for want := 1; want <= 3; want++ {
		ev := nextEvent(t, client)
		rf, ok := ev.(game.ReconnectFailed)
		if !ok || rf.Attempt != want {
			t.Fatalf("expected reconnect failure %d, got %#v", want, ev)
		}
	}
}
