package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/autobuild-go/internal/adapters/gamedata"
	"github.com/andrescamacho/autobuild-go/internal/adapters/grpc"
	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/application/setup"
	"github.com/andrescamacho/autobuild-go/internal/application/strategies"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// NewPlanCommand creates the plan command with subcommands
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Run build order strategies offline",
		Long:  `Evaluate strategies against snapshot files without a daemon or a game.`,
	}

	cmd.AddCommand(newPlanSimulateCommand())

	return cmd
}

// simulateOptions are the inputs of one offline evaluation
type simulateOptions struct {
	Snapshot   string
	Strategy   string
	Catalog    string
	ScriptsDir string
	Frames     int
	Horizon    int
	Format     string
}

// simulationResult is what plan simulate prints
type simulationResult struct {
	Strategy      string                      `json:"strategy" yaml:"strategy"`
	StartFrame    int                         `json:"start_frame" yaml:"start_frame"`
	EndFrame      int                         `json:"end_frame" yaml:"end_frame"`
	Plan          []gamedata.PlanItemDocument `json:"plan" yaml:"plan"`
	MaxGasWorkers int                         `json:"max_gas_workers" yaml:"max_gas_workers"`
	MacroFrame    *int                        `json:"macro_frame,omitempty" yaml:"macro_frame,omitempty"`
	Minerals      float64                     `json:"minerals" yaml:"minerals"`
	Gas           float64                     `json:"gas" yaml:"gas"`
	State         string                      `json:"state,omitempty" yaml:"state,omitempty"`
}

func newPlanSimulateCommand() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Plan a build order from a snapshot file",
		Long: `Run a strategy against a snapshot and print the committed plan.

Without --frames the full planning horizon is evaluated, exactly as a live
tick would. With --frames the strategy is simulated for that many frames and
the state reached is printed as well.

Examples:
  autobuild plan simulate --snapshot configs/snapshots/opening.yaml
  autobuild plan simulate --snapshot opening.yaml --strategy nine_pool --format json
  autobuild plan simulate --snapshot opening.yaml --frames 2400`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return runSimulate(ctx, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "Snapshot file (.yaml or .json)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "Strategy name (default from config)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "Catalog file (default from config)")
	cmd.Flags().StringVar(&opts.ScriptsDir, "scripts", "", "Directory of scripted strategies (default from config)")
	cmd.Flags().IntVar(&opts.Frames, "frames", 0, "Simulate this many frames instead of one planning horizon")
	cmd.Flags().IntVar(&opts.Horizon, "horizon", 0, "Override the planning horizon in frames")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format: text, json or yaml")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

func runSimulate(ctx context.Context, out io.Writer, opts simulateOptions) error {
	cfg := loadConfig()

	catalog, err := loadCatalog(opts.Catalog)
	if err != nil {
		return err
	}

	scriptsDir := opts.ScriptsDir
	if scriptsDir == "" {
		scriptsDir = cfg.Strategy.ScriptsDir
	}
	registry, err := strategies.NewRegistry(scriptsDir)
	if err != nil {
		return fmt.Errorf("failed to load strategies: %w", err)
	}
	name := opts.Strategy
	if name == "" {
		name = cfg.Strategy.Name
	}
	strategy, err := registry.Create(name, catalog)
	if err != nil {
		return err
	}

	doc, err := gamedata.LoadSnapshot(opts.Snapshot)
	if err != nil {
		return err
	}
	live, err := doc.Live(catalog)
	if err != nil {
		return err
	}
	st := autobuild.FromSnapshot(catalog, live)
	st.AutoBuildRefineries = cfg.Planner.AutoBuildRefineries
	st.AutoBuildHatcheries = cfg.Planner.AutoBuildHatcheries

	plannerCfg := setup.PlannerConfig(cfg.Planner)
	if opts.Horizon > 0 {
		plannerCfg.HorizonFrames = opts.Horizon
	}
	if verbose {
		plannerCfg.Verbose = true
		logger := grpc.NewLoggerFactory(nil, "debug", false).For("simulate")
		ctx = common.WithLogger(ctx, logger)
	}
	p := planner.NewPlanner(strategy, nil, plannerCfg)

	result := simulationResult{Strategy: strategy.Name(), StartFrame: st.Frame}
	if opts.Frames > 0 {
		final, err := p.SimEvaluateFor(ctx, st, opts.Frames)
		if err != nil {
			return err
		}
		result.EndFrame = final.Frame
		result.Plan = gamedata.PlanDocuments(final.CommittedPlan, st.Frame)
		result.Minerals = final.Minerals
		result.Gas = final.Gas
		result.State = final.Describe()
	} else {
		eval, err := p.Evaluate(ctx, st)
		if err != nil {
			return err
		}
		result.EndFrame = eval.Final.Frame
		result.Plan = gamedata.PlanDocuments(eval.Plan, st.Frame)
		result.MaxGasWorkers = eval.MaxGasWorkers
		result.Minerals = eval.Final.Minerals
		result.Gas = eval.Final.Gas
		if eval.MacroInserted {
			frame := eval.MacroFrame
			result.MacroFrame = &frame
		}
	}

	return writeSimulation(out, result, opts.Format)
}

func writeSimulation(out io.Writer, result simulationResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(result)
	case "text", "":
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}

	fmt.Fprintf(out, "Strategy: %s\n", result.Strategy)
	fmt.Fprintf(out, "Frames:   %d → %d (%s → %s)\n\n",
		result.StartFrame, result.EndFrame,
		shared.FormatGameTime(result.StartFrame), shared.FormatGameTime(result.EndFrame))

	if len(result.Plan) == 0 {
		fmt.Fprintln(out, "Nothing planned")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTIME\tFRAME\tIN\tTYPE\tPOSITION")
		for i, item := range result.Plan {
			pos := "-"
			if item.Position != nil {
				pos = fmt.Sprintf("(%d, %d)", item.Position.X, item.Position.Y)
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n", i+1, item.GameTime, item.Frame, item.In, item.Type, pos)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\nMinerals: %.0f  Gas: %.0f\n", result.Minerals, result.Gas)
	if result.State == "" {
		fmt.Fprintf(out, "Max gas workers: %d\n", result.MaxGasWorkers)
	}
	if result.MacroFrame != nil {
		fmt.Fprintf(out, "Macro hatchery at %s (frame %d)\n", shared.FormatGameTime(*result.MacroFrame), *result.MacroFrame)
	}
	if result.State != "" {
		fmt.Fprintf(out, "\n%s\n", result.State)
	}
	return nil
}
