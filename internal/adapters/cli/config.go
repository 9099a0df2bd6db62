package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/autobuild-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage Autobuild configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (AUTOBUILD_* prefix)
2. Config file (config.yaml)
3. Default values

User preferences (default session, daemon socket) are stored in
~/.autobuild/config.json

Examples:
  autobuild config show
  autobuild config set-session game-1
  autobuild config set-socket /run/autobuild/daemon.sock
  autobuild config clear`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetSessionCommand())
	cmd.AddCommand(newConfigSetSocketCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				fmt.Fprintf(out, "Warning: Failed to load config: %v\n", err)
				fmt.Fprintln(out, "Using default configuration.")
				cfg = config.LoadConfigOrDefault(configPath)
			}

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			userCfg, err := userConfigHandler.Load()
			if err != nil {
				fmt.Fprintf(out, "Warning: Failed to load user config: %v\n\n", err)
				userCfg = &config.UserConfig{}
			}

			fmt.Fprintln(out, "Autobuild Configuration")
			fmt.Fprintln(out, "=======================")

			fmt.Fprintln(out, "User Preferences:")
			fmt.Fprintf(out, "  Config file:      %s\n", userConfigHandler.GetConfigPath())
			fmt.Fprintf(out, "  Default Session:  %s\n", orNotSet(userCfg.DefaultSession))
			fmt.Fprintf(out, "  Socket Path:      %s\n", orNotSet(userCfg.SocketPath))

			fmt.Fprintln(out, "\nDatabase:")
			fmt.Fprintf(out, "  Type:             %s\n", cfg.Database.Type)
			switch {
			case cfg.Database.URL != "":
				fmt.Fprintf(out, "  URL:              %s\n", maskPassword(cfg.Database.URL))
			case cfg.Database.Type == "sqlite":
				fmt.Fprintf(out, "  Path:             %s\n", cfg.Database.Path)
			default:
				fmt.Fprintf(out, "  Host:             %s\n", cfg.Database.Host)
				fmt.Fprintf(out, "  Port:             %d\n", cfg.Database.Port)
				fmt.Fprintf(out, "  Database:         %s\n", cfg.Database.Name)
				fmt.Fprintf(out, "  User:             %s\n", cfg.Database.User)
			}

			fmt.Fprintln(out, "\nPlanner:")
			fmt.Fprintf(out, "  Cadence:          %d frames\n", cfg.Planner.CadenceFrames)
			fmt.Fprintf(out, "  Horizon:          %d frames\n", cfg.Planner.HorizonFrames)
			fmt.Fprintf(out, "  Depbuild Horizon: %d frames\n", cfg.Planner.DepbuildHorizonFrames)
			fmt.Fprintf(out, "  Dispatch Window:  %d frames\n", cfg.Planner.DispatchWindowFrames)
			fmt.Fprintf(out, "  Gas Window:       %d frames\n", cfg.Planner.GasWindowFrames)
			fmt.Fprintf(out, "  Auto Refineries:  %t\n", cfg.Planner.AutoBuildRefineries)
			fmt.Fprintf(out, "  Auto Hatcheries:  %t\n", cfg.Planner.AutoBuildHatcheries)

			fmt.Fprintln(out, "\nCatalog and Strategy:")
			fmt.Fprintf(out, "  Catalog:          %s\n", cfg.Catalog.Path)
			fmt.Fprintf(out, "  Strategy:         %s\n", cfg.Strategy.Name)
			fmt.Fprintf(out, "  Scripts:          %s\n", orNotSet(cfg.Strategy.ScriptsDir))

			fmt.Fprintln(out, "\nDaemon:")
			fmt.Fprintf(out, "  Socket Path:      %s\n", cfg.Daemon.SocketPath)
			fmt.Fprintf(out, "  PID File:         %s\n", cfg.Daemon.PIDFile)
			fmt.Fprintf(out, "  Tick Rate:        %.0f/s (burst: %d)\n", cfg.Daemon.TickRatePerSecond, cfg.Daemon.TickBurst)
			fmt.Fprintf(out, "  HTTP API:         %s\n", cfg.HTTP.Address)
			fmt.Fprintf(out, "  Plan Feed:        ws://%s%s\n", cfg.Feed.Address, cfg.Feed.Path)

			fmt.Fprintln(out, "\nLogging:")
			fmt.Fprintf(out, "  Level:            %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "  Persist:          %t\n", cfg.Logging.Persist)
			fmt.Fprintf(out, "  Metrics:          %t (%s)\n", cfg.Metrics.Enabled, cfg.Metrics.Path)

			return nil
		},
	}

	return cmd
}

func newConfigSetSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-session <session-id>",
		Short: "Set default session",
		Long: `Set the session used by commands when none is given.

Example:
  autobuild config set-session game-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := userConfigHandler.SetDefaultSession(args[0]); err != nil {
				return fmt.Errorf("failed to set default session: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Default session set successfully")
			fmt.Fprintf(cmd.OutOrStdout(), "  Session: %s\n", args[0])
			return nil
		},
	}

	return cmd
}

func newConfigSetSocketCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-socket <path>",
		Short: "Set default daemon socket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := userConfigHandler.SetSocketPath(args[0]); err != nil {
				return fmt.Errorf("failed to set socket path: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Default socket set successfully")
			fmt.Fprintf(cmd.OutOrStdout(), "  Socket: %s\n", args[0])
			return nil
		},
	}

	return cmd
}

func newConfigClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear user preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := userConfigHandler.Clear(); err != nil {
				return fmt.Errorf("failed to clear user config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ User preferences cleared")
			return nil
		},
	}

	return cmd
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "****")
	return u.String()
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
