package monitor

import "strings"

// DefaultTerminator is appended to outbound data when the client does not ask
// for a specific line ending.
const DefaultTerminator = "\r\n"

// Message is one unit of data queued for writing to a serial port.
type Message struct {
	Data    string
	EndWith string
}

// Bytes returns the on-wire form of the message. The terminator is appended
// only when the payload does not already end with it.
func (m Message) Bytes() []byte {
	end := m.EndWith
	if end == "" {
		end = DefaultTerminator
	}
	if strings.HasSuffix(m.Data, end) {
		return []byte(m.Data)
	}
	return []byte(m.Data + end)
}
