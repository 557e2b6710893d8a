// Package ports enumerates the serial devices available on this machine.
package ports

import (
	"sort"

	"go.bug.st/serial"
)

// List returns the device names of all serial ports, sorted.
func List() ([]string, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
