// webserialmon serves a web serial monitor: browsers and clients subscribe to
// a serial port over WebSocket, share a single connection to it, and can send
// data back to the device.
package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/fyx2490451297/WebSerialMonitor/internal/config"
	"github.com/fyx2490451297/WebSerialMonitor/internal/monitor"
	"github.com/fyx2490451297/WebSerialMonitor/internal/server"
)

var (
	listenAddr = flag.String("listen", "", "HTTP listen address (overrides the config file)")
	configPath = flag.String("config", "", "path to a YAML config file")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}

	hub := server.NewHub()
	registry := monitor.NewRegistry(monitor.OpenSerial, hub)
	srv := server.New(hub, registry, cfg.DefaultBaudrate)

	log.Printf("web serial monitor listening on %s", cfg.Listen)
	log.Printf("default baud rate: %d", cfg.DefaultBaudrate)
	if err := http.ListenAndServe(cfg.Listen, srv.Routes()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
