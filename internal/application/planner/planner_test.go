package planner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/test/helpers"
)

func zergOpening(minerals float64) (*buildtype.Catalog, *autobuild.SimState) {
	catalog := helpers.NewTestCatalog()
	st := helpers.NewTestState(catalog, buildtype.RaceZerg, minerals, map[string]int{
		"Zerg_Hatchery": 1,
		"Zerg_Drone":    4,
	})
	return catalog, st
}

func poolThenHatchery(catalog *buildtype.Catalog) *helpers.FuncStrategy {
	return &helpers.FuncStrategy{
		StrategyName: "pool-hatch",
		Step: func(b *planner.Builder) {
			b.BuildN(catalog.MustLookup("Zerg_Hatchery"), 2)
			b.BuildN(catalog.MustLookup("Zerg_Spawning_Pool"), 1)
		},
	}
}

func TestEvaluate_PriorityCommitsFirstAndRestFollows(t *testing.T) {
	// Arrange
	catalog, st := zergOpening(300)
	p := planner.NewPlanner(poolThenHatchery(catalog), nil, planner.DefaultConfig())

	// Act
	eval, err := p.Evaluate(context.Background(), st)

	// Assert
	require.NoError(t, err)
	require.Len(t, eval.Plan, 2)
	assert.Equal(t, catalog.MustLookup("Zerg_Spawning_Pool"), eval.Plan[0].Entry.Type)
	assert.Equal(t, 0, eval.Plan[0].Frame)
	assert.Equal(t, catalog.MustLookup("Zerg_Hatchery"), eval.Plan[1].Entry.Type)
	assert.Greater(t, eval.Plan[1].Frame, eval.Plan[0].Frame)
	assert.Equal(t, 2, eval.Steps)
	assert.False(t, eval.MacroInserted)

	// The input state is left alone
	assert.Equal(t, 300.0, st.Minerals)
	assert.Empty(t, st.CommittedPlan)
}

func TestEvaluate_PostsGasGathererKeys(t *testing.T) {
	catalog, st := zergOpening(300)
	board := planner.NewBlackboard()
	p := planner.NewPlanner(poolThenHatchery(catalog), board, planner.DefaultConfig())

	eval, err := p.Evaluate(context.Background(), st)

	require.NoError(t, err)
	assert.Equal(t, 0, board.Int(planner.KeyMinGasWorkers, -1))
	assert.Equal(t, eval.MaxGasWorkers, board.Int(planner.KeyMaxGasWorkers, -1))
}

func TestEvaluate_ManualGasKeepsPostedKeys(t *testing.T) {
	// Arrange
	catalog, st := zergOpening(300)
	board := planner.NewBlackboard()
	strategy := poolThenHatchery(catalog)
	strategy.Pre = func(b *planner.Builder) {
		b.PostFlag(planner.KeyMaxGasWorkers, 5)
	}
	config := planner.DefaultConfig()
	config.ManualGas = true

	// Act
	_, err := planner.NewPlanner(strategy, board, config).Evaluate(context.Background(), st)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 5, board.Int(planner.KeyMaxGasWorkers, -1))
	assert.Equal(t, 0, board.Int(planner.KeyMinGasWorkers, -1))
}

func TestEvaluate_AutomaticGasOverridesPostedKeys(t *testing.T) {
	catalog, st := zergOpening(300)
	board := planner.NewBlackboard()
	strategy := poolThenHatchery(catalog)
	strategy.Pre = func(b *planner.Builder) {
		b.PostFlag(planner.KeyMaxGasWorkers, 5)
	}

	eval, err := planner.NewPlanner(strategy, board, planner.DefaultConfig()).Evaluate(context.Background(), st)

	require.NoError(t, err)
	assert.Equal(t, eval.MaxGasWorkers, board.Int(planner.KeyMaxGasWorkers, -1))
}

// droneFlood keeps asking for drones, so every larva is spent as soon as it
// spawns while minerals keep piling up.
func droneFlood(catalog *buildtype.Catalog) *helpers.FuncStrategy {
	drone := catalog.MustLookup("Zerg_Drone")
	return &helpers.FuncStrategy{
		StrategyName: "drone-flood",
		Step: func(b *planner.Builder) {
			b.BuildN(drone, 60)
		},
	}
}

func TestEvaluate_InsertsMacroHatcheryWhenSlotStarved(t *testing.T) {
	// Arrange
	catalog, st := zergOpening(1000)
	st.AddUnit(catalog.MustLookup("Zerg_Overlord"))
	st.AddUnit(catalog.MustLookup("Zerg_Overlord"))
	st.AddUnit(catalog.MustLookup("Zerg_Overlord"))
	st.AutoBuildHatcheries = true
	p := planner.NewPlanner(droneFlood(catalog), nil, planner.DefaultConfig())

	// Act
	eval, err := p.Evaluate(context.Background(), st)

	// Assert
	require.NoError(t, err)
	require.Greater(t, eval.Steps, 0)
	assert.True(t, eval.MacroInserted)
	assert.Equal(t, 0, eval.MacroFrame)
	require.NotEmpty(t, eval.Plan)
	assert.Equal(t, catalog.MustLookup("Zerg_Hatchery"), eval.Plan[0].Entry.Type)
	assert.Equal(t, 0, eval.Plan[0].Frame)
}

func TestEvaluate_EmptyStrategyCommitsNothing(t *testing.T) {
	// Arrange
	_, st := zergOpening(300)
	st.AutoBuildHatcheries = true
	p := planner.NewPlanner(&helpers.FuncStrategy{}, nil, planner.DefaultConfig())

	// Act
	eval, err := p.Evaluate(context.Background(), st)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, eval.Steps)
	assert.False(t, eval.MacroInserted)
	assert.Len(t, eval.Plan, 0)
	assert.Empty(t, st.CommittedPlan)
}

func TestEvaluate_PrebuildsMacroHatcheryLateInTheGame(t *testing.T) {
	// Arrange
	catalog := helpers.NewTestCatalog()
	st := helpers.NewTestState(catalog, buildtype.RaceZerg, 300, map[string]int{"Zerg_Drone": 4, "Zerg_Overlord": 3})
	st.Frame = 9000
	st.AddProducer(autobuild.Producer{Type: catalog.MustLookup("Zerg_Hatchery"), SlotTimer: 9000})
	st.AutoBuildHatcheries = true
	p := planner.NewPlanner(droneFlood(catalog), nil, planner.DefaultConfig())

	// Act
	eval, err := p.Evaluate(context.Background(), st)

	// Assert
	require.NoError(t, err)
	require.True(t, eval.MacroInserted)
	assert.Equal(t, 9000-1800/2, eval.MacroFrame)
}

func TestEvaluate_NoMacroHatcheryWithSlotsAvailable(t *testing.T) {
	catalog := helpers.NewTestCatalog()
	st := helpers.NewTestState(catalog, buildtype.RaceZerg, 300, map[string]int{"Zerg_Drone": 4})
	st.Frame = 3 * autobuild.SlotFrames
	st.AddProducer(autobuild.Producer{Type: catalog.MustLookup("Zerg_Hatchery")})
	st.AutoBuildHatcheries = true
	p := planner.NewPlanner(&helpers.FuncStrategy{}, nil, planner.DefaultConfig())

	eval, err := p.Evaluate(context.Background(), st)

	require.NoError(t, err)
	assert.False(t, eval.MacroInserted)
	assert.Empty(t, eval.Plan)
}

func TestEvaluate_NoMacroHatcheryWhenDisabled(t *testing.T) {
	_, st := zergOpening(300)
	p := planner.NewPlanner(&helpers.FuncStrategy{}, nil, planner.DefaultConfig())

	eval, err := p.Evaluate(context.Background(), st)

	require.NoError(t, err)
	assert.False(t, eval.MacroInserted)
}

func TestEvaluate_HookPanicAborts(t *testing.T) {
	// Arrange
	_, st := zergOpening(300)
	strategy := &helpers.FuncStrategy{
		StrategyName: "broken",
		Step: func(b *planner.Builder) {
			b.Type("Zerg_Ultralisk_Cavern")
		},
	}

	// Act
	_, err := planner.NewPlanner(strategy, nil, planner.DefaultConfig()).Evaluate(context.Background(), st)

	// Assert
	var aborted *planner.ErrHookAborted
	require.True(t, errors.As(err, &aborted))
	assert.Equal(t, "broken", aborted.Strategy)
	assert.Equal(t, "BuildStep", aborted.Hook)
	assert.Equal(t, 0, aborted.Frame)
}

func TestEvaluate_StopsOnCancelledContext(t *testing.T) {
	catalog, st := zergOpening(300)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := planner.NewPlanner(poolThenHatchery(catalog), nil, planner.DefaultConfig()).Evaluate(ctx, st)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_VerboseTracesToContextLogger(t *testing.T) {
	// Arrange
	catalog, st := zergOpening(300)
	logger := helpers.NewCapturingLogger()
	ctx := common.WithLogger(context.Background(), logger)
	config := planner.DefaultConfig()
	config.Verbose = true

	// Act
	_, err := planner.NewPlanner(poolThenHatchery(catalog), nil, config).Evaluate(ctx, st)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, logger.Entries)
	for _, e := range logger.Entries {
		assert.Equal(t, common.LevelDebug, e.Level)
	}
}

func TestSimEvaluateFor_ReachesEndFrameWithoutPosting(t *testing.T) {
	// Arrange
	catalog, st := zergOpening(300)
	board := planner.NewBlackboard()
	strategy := poolThenHatchery(catalog)
	strategy.Pre = func(b *planner.Builder) {
		assert.True(t, b.IsSimulation())
		b.PostFlag("opening", true)
	}
	p := planner.NewPlanner(strategy, board, planner.DefaultConfig())

	// Act
	final, err := p.SimEvaluateFor(context.Background(), st, 2000)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2000, final.Frame)
	assert.Empty(t, board.Keys())
	assert.Equal(t, 0, st.Frame)
	assert.Equal(t, 1, final.CountPlusProduction(catalog.MustLookup("Zerg_Spawning_Pool")))
}

func TestSimEvaluateFor_IdleStrategyPassesTime(t *testing.T) {
	_, st := zergOpening(0)
	p := planner.NewPlanner(&helpers.FuncStrategy{}, nil, planner.DefaultConfig())

	final, err := p.SimEvaluateFor(context.Background(), st, 600)

	require.NoError(t, err)
	assert.Equal(t, 600, final.Frame)
	assert.Greater(t, final.Minerals, 0.0)
}

func TestEstimateGasWorkers(t *testing.T) {
	catalog := helpers.NewTestCatalog()
	lair := catalog.MustLookup("Zerg_Lair")
	drone := catalog.MustLookup("Zerg_Drone")

	tests := []struct {
		name     string
		gas      float64
		noIncome bool
		plan     []autobuild.PlanItem
		want     int
	}{
		{
			name: "empty plan",
			want: 0,
		},
		{
			name: "spend rate over the window",
			plan: []autobuild.PlanItem{{Frame: 100, Entry: autobuild.BuildEntry{Type: lair}}},
			want: 14,
		},
		{
			name: "spend at the current frame alone needs no gatherers",
			plan: []autobuild.PlanItem{{Frame: 0, Entry: autobuild.BuildEntry{Type: lair}}},
			want: 0,
		},
		{
			name: "spend at the current frame counts toward later entries",
			plan: []autobuild.PlanItem{
				{Frame: 0, Entry: autobuild.BuildEntry{Type: lair}},
				{Frame: 100, Entry: autobuild.BuildEntry{Type: drone}},
			},
			want: 14,
		},
		{
			name:     "no gas income needs no gatherers",
			noIncome: true,
			plan:     []autobuild.PlanItem{{Frame: 100, Entry: autobuild.BuildEntry{Type: lair}}},
			want:     0,
		},
		{
			name: "banked gas covers the plan",
			gas:  500,
			plan: []autobuild.PlanItem{{Frame: 100, Entry: autobuild.BuildEntry{Type: lair}}},
			want: 0,
		},
		{
			name: "entries past the window are ignored",
			plan: []autobuild.PlanItem{{Frame: 2000, Entry: autobuild.BuildEntry{Type: lair}}},
			want: 0,
		},
		{
			name: "highest prefix rate wins",
			plan: []autobuild.PlanItem{
				{Frame: 100, Entry: autobuild.BuildEntry{Type: lair}},
				{Frame: 1000, Entry: autobuild.BuildEntry{Type: drone}},
			},
			want: 14,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initial := helpers.NewTestState(catalog, buildtype.RaceZerg, 0, nil)
			initial.Gas = tt.gas
			if tt.noIncome {
				initial.GasPerFramePerGatherer = 0
			}

			got := planner.EstimateGasWorkers(initial, tt.plan, planner.DefaultGasWindowFrames)

			assert.Equal(t, tt.want, got)
		})
	}
}
