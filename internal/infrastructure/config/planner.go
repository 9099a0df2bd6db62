package config

// PlannerConfig tunes the planning loop. Frame counts are game frames at
// 24 frames per second.
type PlannerConfig struct {
	// Frames between two planning ticks, advertised to game clients
	CadenceFrames int `mapstructure:"cadence_frames" validate:"min=1"`

	// Look-ahead of one planning tick
	HorizonFrames int `mapstructure:"horizon_frames" validate:"min=1"`

	// Cut-off for automatically inserted dependencies
	DepbuildHorizonFrames int `mapstructure:"depbuild_horizon_frames" validate:"min=1"`

	// Plan entries due within this window are dispatched
	DispatchWindowFrames int `mapstructure:"dispatch_window_frames" validate:"min=0"`

	// Slice of the plan used for the gas gatherer estimate
	GasWindowFrames int `mapstructure:"gas_window_frames" validate:"min=1"`

	AutoBuildRefineries bool `mapstructure:"auto_build_refineries"`
	AutoBuildHatcheries bool `mapstructure:"auto_build_hatcheries"`

	// Keep gas gatherer counts posted by the strategy
	ManualGas bool `mapstructure:"manual_gas"`

	// Log resolver traces at DEBUG
	Verbose bool `mapstructure:"verbose"`
}

// CatalogConfig locates the build type catalog
type CatalogConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// StrategyConfig selects the default build order
type StrategyConfig struct {
	// Strategy started when a client does not name one
	Name string `mapstructure:"name" validate:"required"`

	// Directory of scripted build orders; empty disables scripts
	ScriptsDir string `mapstructure:"scripts_dir"`
}
