package setup

import (
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/infrastructure/config"
)

// PlannerConfig maps the planner section of the configuration onto the
// planner's own settings
func PlannerConfig(c config.PlannerConfig) planner.Config {
	return planner.Config{
		HorizonFrames:         c.HorizonFrames,
		GasWindowFrames:       c.GasWindowFrames,
		DepbuildHorizonFrames: c.DepbuildHorizonFrames,
		ManualGas:             c.ManualGas,
		Verbose:               c.Verbose,
	}
}

// RunnerConfig maps the planner section onto per-session runner settings
func RunnerConfig(c config.PlannerConfig) planner.RunnerConfig {
	return planner.RunnerConfig{
		DispatchWindow:      c.DispatchWindowFrames,
		AutoBuildRefineries: c.AutoBuildRefineries,
		AutoBuildHatcheries: c.AutoBuildHatcheries,
	}
}
