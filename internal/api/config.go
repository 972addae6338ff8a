// Package api provides the HTTP service for drawing validation: upload,
// conversion, parsing and setback evaluation behind a JSON API.
package api

import (
	"fmt"
	"net"
	"time"

	"github.com/plancheck/plancheck/internal/conf"
)

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultLogPath is the default path for the server log file.
	DefaultLogPath = "logs/server.log"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Server binding
	Host string // Host to bind to (empty for all interfaces)
	Port string // Port to listen on

	// Timeouts
	ReadTimeout     time.Duration // Maximum duration for reading request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum time to wait for next request
	ShutdownTimeout time.Duration // Maximum time to wait for graceful shutdown

	// Limits
	BodyLimit string // Maximum request body size (e.g., "1M", "32M")

	// Logging
	Debug bool // Enable debug mode
}

// ConfigFromSettings builds a server Config from the loaded settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	return &Config{
		Host:            settings.WebServer.Host,
		Port:            settings.WebServer.Port,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       settings.WebServer.BodyLimit,
		Debug:           settings.Debug,
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must be set")
	}
	if c.BodyLimit == "" {
		return fmt.Errorf("body limit must be set")
	}
	return nil
}

// Address returns the host:port string to bind to.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}
