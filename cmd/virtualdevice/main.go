// virtualdevice simulates a serial device for testing the monitor: it
// periodically writes fake sensor readings to a port and logs anything it
// receives back (e.g. commands typed into the web UI).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"
)

var (
	baudRate = flag.Int("baudrate", 115200, "serial port baud rate")
	interval = flag.Duration("interval", 3*time.Second, "time between simulated readings")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <port>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	name := flag.Arg(0)

	port, err := serial.Open(name, &serial.Mode{BaudRate: *baudRate})
	if err != nil {
		log.Fatalf("could not open port %s: %v", name, err)
	}
	defer port.Close()
	log.Printf("virtual device started on %s at %d baud (Ctrl+C to stop)", name, *baudRate)

	// Echo back anything the monitor side sends us.
	go func() {
		scanner := bufio.NewScanner(port)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				log.Printf("received <- %q", line)
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	counter := 0
	for {
		select {
		case <-ticker.C:
			temp := 20 + rand.Float64()*4 - 2
			humidity := 50 + rand.Float64()*10 - 5
			line := fmt.Sprintf("ID:%d, Temp:%.2fC, Humidity:%.2f%%\n", counter, temp, humidity)
			if _, err := port.Write([]byte(line)); err != nil {
				log.Fatalf("write failed: %v", err)
			}
			log.Printf("sent -> %s", line[:len(line)-1])
			counter++
		case <-stop:
			log.Printf("shutdown signal received, closing %s", name)
			return
		}
	}
}
