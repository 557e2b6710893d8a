package monitor

import "sync"

// Session is the registry's record of one actively watched port: how many
// clients share it, the queue of data waiting to go out, and the signal the
// engine watches to learn that the last client has left.
type Session struct {
	port     string
	baud     int
	clients  int
	outbound *sendQueue

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(port string, baud int) *Session {
	return &Session{
		port:     port,
		baud:     baud,
		clients:  1,
		outbound: newSendQueue(),
		done:     make(chan struct{}),
	}
}

// close signals the engine to shut down. Safe to call more than once; the
// registry calls it on last unsubscribe and the engine calls it on failure.
func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Done is closed when the session has been removed from the registry.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
