package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autobuild-go/internal/infrastructure/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_DefaultsFillMissingSections(t *testing.T) {
	// Arrange
	path := writeConfig(t, "strategy:\n  name: nine_pool\n")

	// Act
	cfg, err := config.LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "nine_pool", cfg.Strategy.Name)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "autobuild.db", cfg.Database.Path)
	assert.Equal(t, 15, cfg.Planner.CadenceFrames)
	assert.Equal(t, 3600, cfg.Planner.HorizonFrames)
	assert.Equal(t, 9000, cfg.Planner.DepbuildHorizonFrames)
	assert.Equal(t, 450, cfg.Planner.DispatchWindowFrames)
	assert.Equal(t, 1800, cfg.Planner.GasWindowFrames)
	assert.True(t, cfg.Planner.AutoBuildRefineries)
	assert.True(t, cfg.Planner.AutoBuildHatcheries)
	assert.False(t, cfg.Planner.ManualGas)
	assert.Equal(t, "/plans", cfg.Feed.Path)
	assert.Equal(t, 5*time.Second, cfg.Feed.WriteTimeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadConfig_FileValuesOverrideDefaults(t *testing.T) {
	// Arrange
	path := writeConfig(t, `
planner:
  horizon_frames: 2000
  auto_build_hatcheries: false
  manual_gas: true
daemon:
  tick_rate_per_second: 12.5
http:
  address: 0.0.0.0:9000
`)

	// Act
	cfg, err := config.LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Planner.HorizonFrames)
	assert.False(t, cfg.Planner.AutoBuildHatcheries)
	assert.True(t, cfg.Planner.AutoBuildRefineries)
	assert.True(t, cfg.Planner.ManualGas)
	assert.Equal(t, 12.5, cfg.Daemon.TickRatePerSecond)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Address)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	// Arrange
	path := writeConfig(t, "strategy:\n  name: nine_pool\n")
	t.Setenv("AUTOBUILD_STRATEGY_NAME", "twelve_hatch")
	t.Setenv("AUTOBUILD_PLANNER_VERBOSE", "true")

	// Act
	cfg, err := config.LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "twelve_hatch", cfg.Strategy.Name)
	assert.True(t, cfg.Planner.Verbose)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown database type",
			body:    "database:\n  type: mysql\n",
			wantErr: "oneof",
		},
		{
			name:    "dispatch window beyond horizon",
			body:    "planner:\n  horizon_frames: 300\n  gas_window_frames: 200\n",
			wantErr: "dispatch_window_frames (450) exceeds planner.horizon_frames (300)",
		},
		{
			name:    "feed path without slash",
			body:    "feed:\n  path: plans\n",
			wantErr: "startswith",
		},
		{
			name:    "bad logging level",
			body:    "logging:\n  level: loud\n",
			wantErr: "oneof",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			_, err := config.LoadConfig(writeConfig(t, tt.body))

			// Assert
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigOrDefault_FallsBackOnError(t *testing.T) {
	cfg := config.LoadConfigOrDefault(writeConfig(t, "database:\n  type: mysql\n"))

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.True(t, cfg.Planner.AutoBuildRefineries)
	assert.Equal(t, "default", cfg.Strategy.Name)
}

func TestUserConfigHandler_RoundTrip(t *testing.T) {
	// Arrange
	handler, err := config.NewUserConfigHandlerAt(t.TempDir())
	require.NoError(t, err)

	// Act
	empty, err := handler.Load()
	require.NoError(t, err)
	require.NoError(t, handler.SetDefaultSession("game-7"))
	require.NoError(t, handler.SetSocketPath("/run/autobuild.sock"))
	loaded, err := handler.Load()
	require.NoError(t, err)
	require.NoError(t, handler.Clear())
	cleared, err := handler.Load()
	require.NoError(t, err)

	// Assert
	assert.Equal(t, &config.UserConfig{}, empty)
	assert.Equal(t, "game-7", loaded.DefaultSession)
	assert.Equal(t, "/run/autobuild.sock", loaded.SocketPath)
	assert.Equal(t, &config.UserConfig{}, cleared)
}
