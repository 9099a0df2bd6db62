package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "autobuild.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "autobuild"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "autobuild"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Planner defaults
	if cfg.Planner.CadenceFrames == 0 {
		cfg.Planner.CadenceFrames = 15
	}
	if cfg.Planner.HorizonFrames == 0 {
		cfg.Planner.HorizonFrames = 3600
	}
	if cfg.Planner.DepbuildHorizonFrames == 0 {
		cfg.Planner.DepbuildHorizonFrames = 9000
	}
	if cfg.Planner.DispatchWindowFrames == 0 {
		cfg.Planner.DispatchWindowFrames = 450
	}
	if cfg.Planner.GasWindowFrames == 0 {
		cfg.Planner.GasWindowFrames = 1800
	}

	// Catalog and strategy defaults
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "configs/catalog.yaml"
	}
	if cfg.Strategy.Name == "" {
		cfg.Strategy.Name = "default"
	}

	// Daemon defaults
	if cfg.Daemon.SocketPath == "" {
		cfg.Daemon.SocketPath = "/tmp/autobuild-daemon.sock"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/autobuild-daemon.pid"
	}
	if cfg.Daemon.TickRatePerSecond == 0 {
		cfg.Daemon.TickRatePerSecond = 100
	}
	if cfg.Daemon.TickBurst == 0 {
		cfg.Daemon.TickBurst = 20
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 10 * time.Second
	}

	// HTTP and feed defaults
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = "127.0.0.1:8686"
	}
	if cfg.HTTP.MaxRequestBodySize == 0 {
		cfg.HTTP.MaxRequestBodySize = 4 << 20
	}
	if cfg.Feed.Address == "" {
		cfg.Feed.Address = "127.0.0.1:8687"
	}
	if cfg.Feed.Path == "" {
		cfg.Feed.Path = "/plans"
	}
	if cfg.Feed.WriteTimeout == 0 {
		cfg.Feed.WriteTimeout = 5 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	// Metrics defaults
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
