package monitor

// Event names shared with every connected client. These are the wire contract
// and must not change.
const (
	EventDataRecv = "serial_data_recv"
	EventDataSend = "serial_data_send"
	EventError    = "serial_error"
)

// DataPayload carries one decoded line from a serial port to its subscribers.
type DataPayload struct {
	Data string `json:"data"`
}

// ErrorPayload reports a terminal device error for a port.
type ErrorPayload struct {
	Port    string `json:"port"`
	Message string `json:"message"`
}

// Broadcaster delivers an event to every transport session currently
// subscribed to the given room (port name).
type Broadcaster interface {
	Broadcast(room, event string, payload any)
}
