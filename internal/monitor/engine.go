package monitor

import (
	"io"
	"log"

	"github.com/fyx2490451297/WebSerialMonitor/internal/framer"
)

// engine owns the single live connection to one serial device for one
// session's lifetime. It runs a read loop (bytes in, framed lines out to the
// broadcast room) and a write loop (queued messages out to the device), and
// stops when the session is removed from the registry or the device fails.
type engine struct {
	registry *Registry
	session  *Session
}

func (e *engine) run() {
	s := e.session
	dev, err := e.registry.open(s.port, s.baud)
	if err != nil {
		log.Printf("failed to open serial port %s: %v", s.port, err)
		e.registry.hub.Broadcast(s.port, EventError, ErrorPayload{Port: s.port, Message: err.Error()})
		e.registry.drop(s)
		return
	}
	log.Printf("successfully opened serial port %s", s.port)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		e.writeLoop(dev)
	}()

	readErr := make(chan error, 1)
	go func() {
		readErr <- e.readLoop(dev)
	}()

	select {
	case <-s.Done():
		// Last client left while we were connected (or still opening).
	case err := <-readErr:
		log.Printf("connection to serial port %s lost: %v", s.port, err)
		e.registry.hub.Broadcast(s.port, EventError, ErrorPayload{Port: s.port, Message: err.Error()})
	}

	// Closing the device unblocks a read still in flight.
	dev.Close()
	e.registry.drop(s)
	<-writeDone
	log.Printf("monitor for port %s has shut down", s.port)
}

// readLoop feeds every inbound chunk to the framer and fans each complete
// line out to the port's room. Returns the device error that ended the loop.
func (e *engine) readLoop(dev io.Reader) error {
	f := framer.New()
	buf := make([]byte, 4096)
	for {
		n, err := dev.Read(buf)
		if n > 0 {
			for _, line := range f.Feed(buf[:n]) {
				e.registry.hub.Broadcast(e.session.port, EventDataRecv, DataPayload{Data: line})
			}
		}
		if err != nil {
			return err
		}
	}
}

// writeLoop drains the outbound queue in arrival order. It exits when the
// session is closed or the device rejects a write.
func (e *engine) writeLoop(dev io.Writer) {
	s := e.session
	for {
		for {
			b, ok := s.outbound.pop()
			if !ok {
				break
			}
			if _, err := dev.Write(b); err != nil {
				log.Printf("write to serial port %s failed: %v", s.port, err)
				return
			}
		}
		select {
		case <-s.outbound.wake:
		case <-s.Done():
			return
		}
	}
}
