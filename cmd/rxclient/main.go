// rxclient is a receive-only test client: it subscribes to one port on a
// running webserialmon server and prints every line the device produces.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/gorilla/websocket"

	"github.com/fyx2490451297/WebSerialMonitor/internal/monitor"
)

var (
	serverAddr = flag.String("server", "localhost:50002", "host:port of the webserialmon server")
	baudRate   = flag.Int("baudrate", 115200, "serial port baud rate")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <port>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	port := flag.Arg(0)

	u := url.URL{
		Scheme:   "ws",
		Host:     *serverAddr,
		Path:     "/serial",
		RawQuery: url.Values{"port": {port}, "baudrate": {fmt.Sprint(*baudRate)}}.Encode(),
	}
	log.Printf("connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("connection failed: %v", err)
	}
	defer conn.Close()
	log.Printf("connected, listening for data from %s (Ctrl+C to exit)", port)

	for {
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			log.Fatalf("disconnected from server: %v", err)
		}
		switch env.Event {
		case monitor.EventDataRecv:
			var p monitor.DataPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				log.Printf("malformed data event: %v", err)
				continue
			}
			log.Printf("DATA RECEIVED <-- %s", p.Data)
		case monitor.EventError:
			var p monitor.ErrorPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				log.Printf("malformed error event: %v", err)
				continue
			}
			log.Printf("server reported a serial error: %s", p.Message)
		}
	}
}
