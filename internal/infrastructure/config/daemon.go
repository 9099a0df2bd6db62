package config

import "time"

// DaemonConfig holds daemon service configuration
type DaemonConfig struct {
	// Unix socket path for the gRPC health service
	SocketPath string `mapstructure:"socket_path" validate:"required"`

	// PID file location
	PIDFile string `mapstructure:"pid_file"`

	// Planning ticks accepted per second across all sessions
	TickRatePerSecond float64 `mapstructure:"tick_rate_per_second" validate:"gt=0"`

	// Ticks allowed in a burst above the rate
	TickBurst int `mapstructure:"tick_burst" validate:"min=1"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}

// HTTPConfig holds the game client API configuration
type HTTPConfig struct {
	// Listen address (host:port)
	Address string `mapstructure:"address" validate:"required"`

	// Maximum request body size in bytes
	MaxRequestBodySize int `mapstructure:"max_request_body_size" validate:"min=1024"`
}

// FeedConfig holds the live plan feed configuration
type FeedConfig struct {
	// Listen address (host:port) for the websocket feed and metrics
	Address string `mapstructure:"address" validate:"required"`

	// Path of the websocket endpoint
	Path string `mapstructure:"path" validate:"required,startswith=/"`

	// Per-message write deadline
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required"`
}
