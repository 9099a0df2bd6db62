package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/andrescamacho/autobuild-go/internal/adapters/grpc"
	"github.com/andrescamacho/autobuild-go/internal/infrastructure/pidfile"
)

// NewHealthCommand creates the health command
func NewHealthCommand() *cobra.Command {
	var (
		timeout time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "health [session-id]",
		Short: "Check the daemon and, optionally, one session",
		Long: `Query the daemon's gRPC health service over its Unix socket.

A session reports SERVING while it is running and NOT_SERVING once it has
stopped or failed.

Examples:
  autobuild health
  autobuild health game-1
  autobuild health --session game-1 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := loadConfig()

			pf := pidfile.New(cfg.Daemon.PIDFile)
			pid, pidErr := pf.Running()
			switch {
			case pidErr == nil:
				fmt.Fprintf(out, "Daemon PID:  %d (%s)\n", pid, pf.Path())
			case errors.Is(pidErr, pidfile.ErrNotRunning):
				fmt.Fprintf(out, "Daemon PID:  not running (%s)\n", pf.Path())
			default:
				fmt.Fprintf(out, "Daemon PID:  %v\n", pidErr)
			}

			socket := resolveSocketPath()
			client, err := grpc.NewDaemonClientGRPC(socket)
			if err != nil {
				return fmt.Errorf("failed to connect to daemon: %w", err)
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			daemon, err := client.Check(ctx, "")
			if err != nil {
				return err
			}
			if err := printHealth(cmd, "Daemon", socket, daemon, asJSON); err != nil {
				return err
			}

			if len(args) == 0 && sessionID == "" {
				return nil
			}
			id, err := resolveSessionID(args)
			if err != nil {
				return err
			}
			resp, err := client.CheckSession(ctx, id)
			if err != nil {
				return err
			}
			return printHealth(cmd, "Session", id, resp, asJSON)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "How long to wait for the daemon")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw health responses as JSON")

	return cmd
}

func printHealth(cmd *cobra.Command, label, target string, resp *healthpb.HealthCheckResponse, asJSON bool) error {
	if asJSON {
		data, err := protojson.Marshal(resp)
		if err != nil {
			return fmt.Errorf("failed to encode health response: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
		return nil
	}

	icon := "✓"
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		icon = "✗"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s %s (%s)\n", label+":", icon, resp.GetStatus(), target)
	return nil
}
