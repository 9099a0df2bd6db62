package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/autobuild-go/internal/adapters/persistence"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// NewSessionCommand creates the session command with subcommands
func NewSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect stored planning sessions",
		Long:  `Inspect planning sessions, their tick history and planner logs as stored by the daemon.`,
	}

	cmd.AddCommand(newSessionListCommand())
	cmd.AddCommand(newSessionTicksCommand())
	cmd.AddCommand(newSessionLogsCommand())

	return cmd
}

func newSessionListCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			sessions, err := persistence.NewSessionRepository(db, shared.NewRealClock()).List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-30s %-14s %-8s %-10s %-8s %-8s %s\n",
				"SESSION ID", "STRATEGY", "RACE", "STATUS", "TICKS", "FRAME", "CREATED")
			fmt.Fprintln(out, "──────────────────────────────────────────────────────────────────────────────────────────────")

			shown := 0
			for _, s := range sessions {
				if status != "" && !strings.EqualFold(string(s.Status()), status) {
					continue
				}
				fmt.Fprintf(out, "%-30s %-14s %-8s %-10s %-8d %-8s %s\n",
					truncate(s.ID(), 30),
					truncate(s.Strategy(), 14),
					s.Race(),
					s.Status(),
					s.Ticks(),
					shared.FormatGameTime(s.LastFrame()),
					s.CreatedAt().Format("2006-01-02 15:04:05"),
				)
				shown++
			}

			if shown == 0 {
				fmt.Fprintln(out, "No sessions found")
				return nil
			}
			fmt.Fprintf(out, "\nTotal: %d sessions\n", shown)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (RUNNING, STOPPED, FAILED, etc.)")

	return cmd
}

func newSessionTicksCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "ticks [session-id]",
		Short: "Show the most recent planning ticks of a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSessionID(args)
			if err != nil {
				return err
			}
			db, err := openDatabase()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			records, err := persistence.NewTickRepository(db).Recent(ctx, id, limit)
			if err != nil {
				return fmt.Errorf("failed to get ticks: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No ticks recorded for session:", id)
				return nil
			}

			fmt.Fprintf(out, "%-8s %-7s %-6s %-6s %-6s %-6s %-5s %-10s %s\n",
				"TIME", "FRAME", "PLAN", "DISP", "CANC", "PRIO", "GAS", "DURATION", "")
			// Oldest first
			for i := len(records) - 1; i >= 0; i-- {
				r := records[i]
				note := ""
				if r.Aborted {
					note = "aborted"
				}
				fmt.Fprintf(out, "%-8s %-7d %-6d %-6d %-6d %-6d %-5d %-10s %s\n",
					shared.FormatGameTime(r.Frame), r.Frame, r.PlanLength,
					r.Dispatched, r.Cancelled, r.Reprioritized, r.MaxGasWorkers,
					r.Duration.Round(time.Microsecond), note)
			}
			fmt.Fprintf(out, "\nTotal: %d ticks\n", len(records))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of ticks")

	return cmd
}

func newSessionLogsCommand() *cobra.Command {
	var (
		limit int
		level string
		since time.Duration
	)

	cmd := &cobra.Command{
		Use:   "logs [session-id]",
		Short: "Get planner logs of a session",
		Long: `Retrieve planner logs for a session from the database.

Examples:
  autobuild session logs game-1
  autobuild session logs game-1 --limit 50
  autobuild session logs --level ERROR --since 10m`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSessionID(args)
			if err != nil {
				return err
			}
			db, err := openDatabase()
			if err != nil {
				return err
			}

			logRepo := persistence.NewGormPlannerLogRepository(db, nil)

			var levelPtr *string
			if level != "" {
				upper := strings.ToUpper(level)
				levelPtr = &upper
			}
			var sincePtr *time.Time
			if since > 0 {
				t := time.Now().Add(-since)
				sincePtr = &t
			}

			logs, err := logRepo.GetLogs(context.Background(), id, limit, 0, levelPtr, sincePtr)
			if err != nil {
				return fmt.Errorf("failed to get logs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(logs) == 0 {
				fmt.Fprintln(out, "No logs found for session:", id)
				return nil
			}

			// Display logs in reverse order (oldest first)
			for i := len(logs) - 1; i >= 0; i-- {
				log := logs[i]
				fmt.Fprintf(out, "[%s] [%s] %s\n",
					log.Timestamp.Format("2006-01-02 15:04:05"),
					log.Level,
					log.Message,
				)
			}

			fmt.Fprintf(out, "\nTotal: %d log entries\n", len(logs))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of log entries")
	cmd.Flags().StringVar(&level, "level", "", "Filter by log level (DEBUG, INFO, WARNING, ERROR)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only show logs newer than this (e.g. 10m)")

	return cmd
}
