package inspect

import (
	"net/http"
	"time"
)

// Config configures the inspector server.
type Config struct {
	// Address is the listen address (default: "localhost:8090").
	Address string

	// ReadBufferSize is the WebSocket read buffer size in bytes
	// (default: 1024).
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size in bytes
	// (default: 4096).
	WriteBufferSize int

	// CheckOrigin validates WebSocket upgrade origins. The default
	// accepts every origin; the inspector is meant for development.
	CheckOrigin func(r *http.Request) bool

	// SendBuffer is the per-client outbound queue length. A client
	// that falls this far behind is disconnected (default: 256).
	SendBuffer int

	// WriteTimeout bounds a single WebSocket write (default: 10s).
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown (default: 5s).
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default inspector configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:         "localhost:8090",
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     func(*http.Request) bool { return true },
		SendBuffer:      256,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// normalize fills in defaults for any unset fields.
func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = defaults.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = defaults.WriteBufferSize
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = defaults.CheckOrigin
	}
	if c.SendBuffer == 0 {
		c.SendBuffer = defaults.SendBuffer
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
}
