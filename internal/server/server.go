// Package server exposes the web serial monitor over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/fyx2490451297/WebSerialMonitor/internal/monitor"
	"github.com/fyx2490451297/WebSerialMonitor/internal/ports"
)

// Server wires websocket sessions to the port registry: it joins each client
// to its port's room, forwards send requests into the registry, and serves
// the monitor page and the port listing API.
type Server struct {
	hub         *Hub
	registry    *monitor.Registry
	defaultBaud int
	upgrader    websocket.Upgrader

	listPorts func() ([]string, error)
}

func New(hub *Hub, registry *monitor.Registry, defaultBaud int) *Server {
	return &Server{
		hub:         hub,
		registry:    registry,
		defaultBaud: defaultBaud,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		listPorts: ports.List,
	}
}

// Routes returns the HTTP mux for the whole application.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveIndex)
	mux.HandleFunc("/api/list_ports", s.serveListPorts)
	mux.HandleFunc("/serial", s.serveSerial)
	return mux
}

func (s *Server) serveListPorts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	names, err := s.listPorts()
	if err != nil {
		log.Printf("error finding serial ports: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	json.NewEncoder(w).Encode(map[string]any{"success": true, "ports": names})
}

// serveSerial upgrades the connection and runs one client session. A client
// must name a port up front; the subscription is denied before the upgrade
// otherwise. A bad baudrate is not fatal, the default is used instead.
func (s *Server) serveSerial(w http.ResponseWriter, r *http.Request) {
	port := r.URL.Query().Get("port")
	if port == "" {
		log.Printf("client %s connected without a port, connection rejected", r.RemoteAddr)
		http.Error(w, "query parameter 'port' is required", http.StatusBadRequest)
		return
	}

	baud := s.defaultBaud
	if v := r.URL.Query().Get("baudrate"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Printf("client %s provided an invalid baud rate %q, using default %d", r.RemoteAddr, v, baud)
		} else {
			baud = n
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}

	c := newClient(conn, port)
	s.hub.join(c)
	go c.writePump()
	s.registry.Subscribe(port, baud)
	log.Printf("client %s has connected and joined room %q", r.RemoteAddr, port)

	defer func() {
		s.hub.leave(c)
		s.registry.Unsubscribe(port)
		conn.Close()
		log.Printf("client %s has disconnected from room %q", r.RemoteAddr, port)
	}()

	s.readPump(c)
}

// sendRequest is the payload of a serial_data_send event.
type sendRequest struct {
	Data    string `json:"data"`
	EndWith string `json:"end_with"`
}

// readPump dispatches inbound events by name until the connection drops.
// Malformed frames and unknown events are ignored, not fatal.
func (s *Server) readPump(c *client) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("ignoring malformed frame from a client on port %s: %v", c.room, err)
			continue
		}
		switch env.Event {
		case monitor.EventDataSend:
			var req sendRequest
			if len(env.Data) > 0 {
				if err := json.Unmarshal(env.Data, &req); err != nil {
					log.Printf("ignoring malformed %s payload on port %s: %v", env.Event, c.room, err)
					continue
				}
			}
			log.Printf("SEND -> %s: %s", c.room, req.Data)
			s.registry.Send(c.room, monitor.Message{Data: req.Data, EndWith: req.EndWith})
		default:
			// Unknown events are dropped silently.
		}
	}
}
