package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"songteller/internal/service/teller"
)

func dialFeed(t *testing.T, srvURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srvURL, "http") + "/session/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) teller.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event teller.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func TestEventFeedBroadcasts(t *testing.T) {
	hub := NewHub()
	router := chi.NewRouter()
	NewHandler(hub).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialFeed(t, srv.URL)

	if greeting := readEvent(t, conn); greeting.Type != "connected" {
		t.Fatalf("expected connected greeting, got %q", greeting.Type)
	}

	hub.Publish(teller.Event{
		Type:      teller.EventSongAdded,
		Data:      map[string]any{"artist": "Kraftwerk"},
		Timestamp: time.Now().UTC(),
	})

	event := readEvent(t, conn)
	if event.Type != teller.EventSongAdded {
		t.Fatalf("expected %s event, got %q", teller.EventSongAdded, event.Type)
	}
	data, ok := event.Data.(map[string]any)
	if !ok || data["artist"] != "Kraftwerk" {
		t.Fatalf("unexpected event data: %+v", event.Data)
	}
}

func TestEventFeedMultipleClients(t *testing.T) {
	hub := NewHub()
	router := chi.NewRouter()
	NewHandler(hub).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	defer srv.Close()

	first := dialFeed(t, srv.URL)
	second := dialFeed(t, srv.URL)
	readEvent(t, first)
	readEvent(t, second)

	hub.Publish(teller.Event{Type: teller.EventSessionReset, Timestamp: time.Now().UTC()})

	if event := readEvent(t, first); event.Type != teller.EventSessionReset {
		t.Fatalf("first client got %q", event.Type)
	}
	if event := readEvent(t, second); event.Type != teller.EventSessionReset {
		t.Fatalf("second client got %q", event.Type)
	}
}
