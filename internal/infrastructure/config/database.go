package config

import "time"

// DatabaseConfig selects where sessions, dispatched actions, plan ticks and
// planner logs are stored. SQLite is the default; an empty path or
// ":memory:" keeps everything in memory.
type DatabaseConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=postgres sqlite"`

	// SQLite file
	Path string `mapstructure:"path"`

	// PostgreSQL: URL wins over the individual fields
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full"`

	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig sizes the PostgreSQL connection pool
type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open" validate:"min=1"`
	MaxIdle     int           `mapstructure:"max_idle" validate:"min=1"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}
