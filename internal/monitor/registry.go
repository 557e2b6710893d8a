package monitor

import (
	"io"
	"log"
	"sync"
)

// OpenFunc opens the device behind a port name at the given baud rate.
// The default is OpenSerial; tests substitute pty or in-memory devices.
type OpenFunc func(port string, baud int) (io.ReadWriteCloser, error)

// Registry is the single source of truth for which ports are live and how
// many clients watch each one. It serializes session creation and teardown
// and guarantees at most one running engine per port.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	open OpenFunc
	hub  Broadcaster
}

func NewRegistry(open OpenFunc, hub Broadcaster) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		open:     open,
		hub:      hub,
	}
}

// Subscribe registers one more client for the port. The first client for a
// previously absent port creates the session and starts the engine; the baud
// rate of that first client wins for the session's lifetime. The check and
// start happen under the registry lock, so two near-simultaneous first
// subscribers can never start two engines.
func (r *Registry) Subscribe(port string, baud int) {
	r.mu.Lock()
	s, ok := r.sessions[port]
	if !ok {
		s = newSession(port, baud)
		r.sessions[port] = s
	} else {
		s.clients++
	}
	clients := s.clients
	r.mu.Unlock()

	log.Printf("number of clients for port %s: %d", port, clients)
	if !ok {
		log.Printf("starting serial monitor for port %s at %d baud", port, baud)
		e := &engine{registry: r, session: s}
		go e.run()
	}
}

// Unsubscribe unregisters one client. When the count reaches zero the session
// is removed and its engine is signalled to stop; there is no direct call
// into the engine, which may still be mid-open at this point.
func (r *Registry) Unsubscribe(port string) {
	r.mu.Lock()
	s, ok := r.sessions[port]
	if !ok {
		r.mu.Unlock()
		log.Printf("client left port %s, but it was already closed", port)
		return
	}
	s.clients--
	clients := s.clients
	if clients <= 0 {
		delete(r.sessions, port)
	}
	r.mu.Unlock()

	log.Printf("remaining clients for port %s: %d", port, clients)
	if clients <= 0 {
		log.Printf("all clients for port %s have disconnected, stopping monitor", port)
		s.close()
	}
}

// Send queues an outbound message for the port. Messages for ports with no
// live session are silently dropped.
func (r *Registry) Send(port string, m Message) {
	r.mu.Lock()
	s, ok := r.sessions[port]
	r.mu.Unlock()
	if !ok {
		return
	}
	s.outbound.push(m.Bytes())
}

// Clients reports how many clients currently watch the port.
func (r *Registry) Clients(port string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[port]
	if !ok {
		return 0
	}
	return s.clients
}

// drop removes the session if it is still the one registered for the port.
// Used by the engine on its way out; racing with Unsubscribe or with a fresh
// session for the same port is fine.
func (r *Registry) drop(s *Session) {
	r.mu.Lock()
	if r.sessions[s.port] == s {
		delete(r.sessions, s.port)
	}
	r.mu.Unlock()
	s.close()
}
