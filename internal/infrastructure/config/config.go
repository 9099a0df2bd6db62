package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the main configuration struct combining all sub-configs
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LoadConfig loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (config.yaml)
// 3. Defaults (lowest priority)
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/autobuild")
	}

	v.SetEnvPrefix("AUTOBUILD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	setBoolDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we'll use env vars and defaults
	}

	// DATABASE_URL is honoured without the AUTOBUILD_ prefix
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindEnvKeys registers the keys that may come only from the environment.
// AutomaticEnv alone does not make them visible to Unmarshal.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"database.type", "database.url", "database.path",
		"planner.horizon_frames", "planner.manual_gas", "planner.verbose",
		"catalog.path",
		"strategy.name", "strategy.scripts_dir",
		"daemon.socket_path", "daemon.pid_file",
		"http.address",
		"feed.address",
		"logging.level",
	} {
		_ = v.BindEnv(key)
	}
}

// setBoolDefaults seeds the switches whose zero value is not the default.
func setBoolDefaults(v *viper.Viper) {
	v.SetDefault("planner.auto_build_refineries", true)
	v.SetDefault("planner.auto_build_hatcheries", true)
	v.SetDefault("logging.persist", true)
	v.SetDefault("metrics.enabled", true)
}

// LoadConfigOrDefault loads configuration or returns a default config on error
func LoadConfigOrDefault(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		defaultCfg := &Config{}
		defaultCfg.Planner.AutoBuildRefineries = true
		defaultCfg.Planner.AutoBuildHatcheries = true
		defaultCfg.Logging.Persist = true
		defaultCfg.Metrics.Enabled = true
		SetDefaults(defaultCfg)
		return defaultCfg
	}
	return cfg
}

// MustLoadConfig loads configuration and panics on error (for use in main.go)
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
