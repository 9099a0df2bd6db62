package config

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Minimum level echoed to stdout: debug, info, warning, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warning error"`

	// Persist planner logs to the database
	Persist bool `mapstructure:"persist"`
}
