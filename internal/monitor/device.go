package monitor

import (
	"io"

	"go.bug.st/serial"
)

// OpenSerial opens a real serial device. RTS and DTR are pulled low right
// after opening so boards that reset on DTR (most Arduinos) are left alone.
func OpenSerial(port string, baud int) (io.ReadWriteCloser, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	p.SetRTS(false)
	p.SetDTR(false)
	return p, nil
}
