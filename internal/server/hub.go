package server

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// envelope is the framing for every event on the websocket: one JSON text
// message per event.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// client is one connected websocket session. Each client belongs to exactly
// one room (the port it watches). All writes go through the send channel so
// the connection has a single writer.
type client struct {
	conn *websocket.Conn
	room string
	send chan envelope

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, room string) *client {
	return &client{
		conn: conn,
		room: room,
		send: make(chan envelope, 64),
	}
}

func (c *client) writePump() {
	for env := range c.send {
		if err := c.conn.WriteJSON(env); err != nil {
			return
		}
	}
}

func (c *client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub tracks which clients are in which room and fans events out to them.
// It implements monitor.Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.room]
	if room == nil {
		room = make(map[*client]struct{})
		h.rooms[c.room] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.room]
	if room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.room)
		}
	}
	// Closed under the lock so Broadcast never sends on a closed channel.
	c.closeSend()
}

// Broadcast delivers one event to every client currently in the room. Clients
// that joined after an earlier emission never see it; there is no backlog.
// Delivery is best-effort: a client whose send buffer is full loses the event
// rather than stalling the whole room.
func (h *Hub) Broadcast(room, event string, payload any) {
	env := envelope{Event: event, Data: payload}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- env:
		default:
			log.Printf("dropping %s event for a slow client on port %s", event, room)
		}
	}
}
