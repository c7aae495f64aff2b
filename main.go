package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"memvid-mcp-server/internal/application"
	"memvid-mcp-server/internal/domain"
	"memvid-mcp-server/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration (optional YAML file plus MEMVID_FILE/MEMVID_BIN
	// from the environment, read once here and immutable afterwards).
	config, err := domain.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Configuration loaded (binary: %s)", config.Memvid.BinaryName())
	if config.Memvid.DefaultPath == "" {
		log.Printf("No default memory file configured - calls must provide an explicit path")
	}

	// Wire the memory handler: subprocess runner and result formatter.
	runner := infrastructure.NewMemvidClient(config.Memvid.BinaryName())
	formatter := domain.NewResultFormatter()
	memoryHandler := application.NewMemoryHandler(runner, formatter, &config.Memvid)
	log.Println("Memory handler registered")

	router := application.NewRequestRouter(memoryHandler)

	// Create transport based on configuration
	var transport domain.Transport
	switch config.Transport.Type {
	case "stdio":
		log.Println("Initializing stdio transport")
		transport = domain.NewStdioTransport()
	case "http":
		log.Printf("Initializing HTTP transport on %s:%d", config.Transport.HTTP.Host, config.Transport.HTTP.Port)
		transport = domain.NewHTTPTransport(config.Transport.HTTP.Host, config.Transport.HTTP.Port)
	default:
		log.Fatalf("Invalid transport type: %s", config.Transport.Type)
	}

	server := application.NewServer(transport, router, config)
	log.Println("MCP server created")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	errChan := make(chan error, 1)
	go func() {
		log.Println("Starting MCP server...")
		if err := server.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	log.Printf("MCP server started successfully (%s transport)", config.Transport.Type)

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()
	case err := <-errChan:
		log.Printf("Server error: %v", err)
		cancel()
		if err := server.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
		os.Exit(1)
	}

	log.Println("Closing server...")
	if err := server.Close(); err != nil {
		log.Printf("Error during server shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server shutdown complete")
}
