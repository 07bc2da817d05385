package chatclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newPushServer(t *testing.T, events ...PushEvent) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for _, event := range events {
			if err := conn.WriteJSON(event); err != nil {
				break
			}
		}
		// Keep the channel open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSetActiveGroupConnectsAndDeliversEvents(t *testing.T) {
	msg := testMessage(1, 7)
	server := newPushServer(t, PushEvent{Type: EventNewMessage, GroupID: 7, Message: &msg})
	defer server.Close()

	received := make(chan PushEvent, 1)
	manager := NewConnectionManager(wsURL(server), "token", func(event PushEvent) {
		received <- event
	})

	manager.SetActiveGroup(context.Background(), 7)
	defer manager.SetActiveGroup(context.Background(), 0)

	if !manager.Connected() {
		t.Fatal("expected connected after successful dial")
	}

	select {
	case event := <-received:
		if event.Type != EventNewMessage || event.Message == nil || event.Message.ID != 1 {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("push event never delivered")
	}
}

func TestSetActiveGroupZeroTearsDown(t *testing.T) {
	server := newPushServer(t)
	defer server.Close()

	manager := NewConnectionManager(wsURL(server), "token", nil)
	manager.SetActiveGroup(context.Background(), 7)
	if !manager.Connected() {
		t.Fatal("expected connected")
	}

	manager.SetActiveGroup(context.Background(), 0)
	if manager.Connected() {
		t.Fatal("expected disconnected after clearing the active group")
	}
}

func TestDialFailureIsNonFatal(t *testing.T) {
	manager := NewConnectionManager("ws://127.0.0.1:1", "token", nil)
	manager.logf = func(string, ...any) {}

	manager.SetActiveGroup(context.Background(), 7)

	if manager.Connected() {
		t.Fatal("expected disconnected after a failed dial")
	}
}
