package cli

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/autobuild-go/internal/adapters/gamedata"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/infrastructure/config"
	"github.com/andrescamacho/autobuild-go/internal/infrastructure/database"
)

// loadConfig loads --config, falling back to defaults when it is missing or
// invalid so that offline commands keep working.
func loadConfig() *config.Config {
	return config.LoadConfigOrDefault(configPath)
}

// resolveSessionID picks the session from the first argument, the --session
// flag or the user config default, in that order.
func resolveSessionID(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if sessionID != "" {
		return sessionID, nil
	}

	userConfigHandler, err := config.NewUserConfigHandler()
	if err != nil {
		return "", fmt.Errorf("no session specified and failed to load user config: %w", err)
	}
	userCfg, err := userConfigHandler.Load()
	if err != nil {
		return "", fmt.Errorf("no session specified and failed to load user config: %w", err)
	}
	if userCfg.DefaultSession != "" {
		return userCfg.DefaultSession, nil
	}

	return "", fmt.Errorf("no session specified: pass one, use --session, or set a default with 'autobuild config set-session'")
}

// resolveSocketPath honours --socket before the configured defaults
func resolveSocketPath() string {
	if socketPath != "" {
		return socketPath
	}
	return getDefaultSocketPath()
}

// loadCatalog reads the catalog at path, or the configured one when path is
// empty
func loadCatalog(path string) (*buildtype.Catalog, error) {
	if path == "" {
		path = loadConfig().Catalog.Path
	}
	catalog, err := gamedata.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return catalog, nil
}

// openDatabase connects to the configured database and makes sure the
// planner tables exist
func openDatabase() (*gorm.DB, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
