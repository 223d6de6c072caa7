package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aeolun/parley/pkg/server"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	configPath := flag.String("config", "~/.parley/config.toml", "Path to config file")
	port := flag.Int("port", 0, "TCP port to listen on (overrides config)")
	httpPort := flag.Int("http-port", 0, "HTTP port for WebSocket/metrics (overrides config)")
	credsPath := flag.String("credentials", "", "Path to credentials file (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		fmt.Printf("Parley Server %s\n", Version)
		os.Exit(0)
	}

	// Load configuration (creates default if not found)
	config, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command-line flags override config file
	if *port != 0 {
		config.Server.TCPPort = *port
	}
	if *httpPort != 0 {
		config.Server.HTTPPort = *httpPort
	}
	if *credsPath != "" {
		config.Server.CredentialsPath = *credsPath
	}

	finalCredsPath, err := config.GetCredentialsPath()
	if err != nil {
		log.Fatalf("Failed to resolve credentials path: %v", err)
	}

	// Ensure directory exists
	credsDir := filepath.Dir(finalCredsPath)
	if err := os.MkdirAll(credsDir, 0755); err != nil {
		log.Fatalf("Failed to create credentials directory: %v", err)
	}

	serverConfig := config.ToServerConfig()

	srv, err := server.NewServer(finalCredsPath, serverConfig)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	srv.SetMetrics(server.NewMetrics())

	if *debug {
		srv.EnableDebugLogging()
		log.Printf("Debug logging enabled")
	}

	log.Printf("Credentials: %s", finalCredsPath)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Printf("Parley server %s started successfully", Version)
	log.Printf("Port: %d", serverConfig.TCPPort)
	log.Printf("Available connection methods:")
	log.Printf("  - Line protocol (TCP): port %d", serverConfig.TCPPort)
	log.Printf("  - WebSocket: port %d (ws://server:%d/ws)", serverConfig.HTTPPort, serverConfig.HTTPPort)
	log.Printf("Default room: %s", serverConfig.DefaultRoom)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down server...")
	if err := srv.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped")
}
