package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/autobuild-go/internal/infrastructure/config"
)

var (
	// Global flags
	socketPath string
	configPath string
	sessionID  string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autobuild",
		Short: "Autobuild CLI - Plan build orders and inspect the planner daemon",
		Long: `Autobuild CLI runs build order simulations offline and inspects the
planner daemon and its stored sessions.

Examples:
  autobuild plan simulate --snapshot configs/snapshots/opening.yaml --strategy nine_pool
  autobuild catalog validate
  autobuild catalog tree Zerg_Lurker
  autobuild catalog schema snapshot
  autobuild session list
  autobuild session logs game-1 --level ERROR
  autobuild health --session game-1`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "",
		"Path to daemon Unix socket (default from user config or AUTOBUILD_SOCKET)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ./, ./configs, /etc/autobuild)")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "",
		"Session ID (default from user config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	// Add command groups
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewCatalogCommand())
	rootCmd.AddCommand(NewSessionCommand())
	rootCmd.AddCommand(NewHealthCommand())

	return rootCmd
}

// getDefaultSocketPath returns the socket used when --socket is not given
func getDefaultSocketPath() string {
	if path := os.Getenv("AUTOBUILD_SOCKET"); path != "" {
		return path
	}
	if handler, err := config.NewUserConfigHandler(); err == nil {
		if userCfg, err := handler.Load(); err == nil && userCfg.SocketPath != "" {
			return userCfg.SocketPath
		}
	}
	return loadConfig().Daemon.SocketPath
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
