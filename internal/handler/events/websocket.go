package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"songteller/internal/service/teller"
)

const writeTimeout = 5 * time.Second

// Hub fans teller events out to connected websocket clients. All
// writes to a registered connection go through Publish, so gorilla's
// single-writer rule holds.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// Publish broadcasts an event to every connected client. Clients that
// fail the write are dropped.
func (h *Hub) Publish(event teller.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("[events] dropping client: %v", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// register greets the client and adds it under one lock, so once the
// greeting is on the wire every later Publish reaches this connection.
func (h *Hub) register(conn *websocket.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(teller.Event{Type: "connected", Timestamp: time.Now().UTC()}); err != nil {
		return err
	}
	h.conns[conn] = struct{}{}
	return nil
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Handler upgrades event feed subscribers onto the hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session/events", h.handleEvents)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] upgrade failed: %v", err)
		return
	}

	log.Printf("[events] client connected from %s", r.RemoteAddr)

	if err := h.hub.register(conn); err != nil {
		conn.Close()
		return
	}
	defer func() {
		h.hub.remove(conn)
		conn.Close()
		log.Printf("[events] client disconnected")
	}()

	// The feed is write-only; reading just services pings and close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[events] read error: %v", err)
			}
			return
		}
	}
}
