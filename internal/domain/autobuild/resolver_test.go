package autobuild_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/test/helpers"
)

// cycleCatalog has two structures that require each other.
func cycleCatalog() *buildtype.Catalog {
	return buildtype.MustNewCatalog([]buildtype.Definition{
		{Name: "Worker", Race: "terran", MineralCost: 50, SupplyRequired: 1, BuildTime: 300, Builder: "Base", Worker: true},
		{Name: "Base", Race: "terran", MineralCost: 400, SupplyProvided: 10, BuildTime: 1800, Builder: "Worker", ResourceDepot: true},
		{Name: "TypeX", Race: "terran", MineralCost: 100, BuildTime: 600, Builder: "Worker", Prerequisites: []string{"TypeY"}},
		{Name: "TypeY", Race: "terran", MineralCost: 100, BuildTime: 600, Builder: "Worker", Prerequisites: []string{"TypeX"}},
		{Name: "Depot", Race: "terran", MineralCost: 100, SupplyProvided: 8, BuildTime: 600, Builder: "Worker", SupplyDepot: true},
		{Name: "Refinery", Race: "terran", MineralCost: 100, BuildTime: 600, Builder: "Worker", Refinery: true},
	})
}

func TestDepbuild_BuildsBlockingDependency(t *testing.T) {
	// Arrange
	catalog, st := terranBase(500, nil)
	baseline := st.Clone()

	// Act
	ok := autobuild.Resolver{}.Depbuild(st, baseline, autobuild.BuildEntry{Type: catalog.MustLookup("Terran_Marine")})

	// Assert
	require.True(t, ok)
	require.Len(t, st.CommittedPlan, 1)
	assert.Equal(t, catalog.MustLookup("Terran_Barracks"), st.CommittedPlan[0].Entry.Type)
	assert.Equal(t, 350.0, st.Minerals)
	assert.Equal(t, 500.0, baseline.Minerals)
	assert.Empty(t, baseline.CommittedPlan)
}

func TestDepbuild_FailsOnWorkerDependencyAndRestoresBaseline(t *testing.T) {
	catalog := helpers.NewTestCatalog()
	st := helpers.NewTestState(catalog, buildtype.RaceTerran, 1000, nil)
	baseline := st.Clone()

	ok := autobuild.Resolver{}.Depbuild(st, baseline, autobuild.BuildEntry{Type: catalog.MustLookup("Terran_Marine")})

	assert.False(t, ok)
	assert.Equal(t, 0, st.Frame)
	assert.Empty(t, st.CommittedPlan)
	assert.Equal(t, 1000.0, st.Minerals)
}

func TestDepbuild_TerminatesOnPrerequisiteCycle(t *testing.T) {
	// Arrange
	catalog := cycleCatalog()
	st := helpers.NewTestState(catalog, buildtype.RaceTerran, 1000, map[string]int{"Base": 1, "Worker": 4})
	var lines []string
	r := autobuild.Resolver{Trace: autobuild.Trace{Sink: func(depth int, msg string) {
		lines = append(lines, fmt.Sprintf("%d %s", depth, msg))
	}}}

	// Act
	ok := r.Depbuild(st, st.Clone(), autobuild.BuildEntry{Type: catalog.MustLookup("TypeX")})

	// Assert
	assert.False(t, ok)
	assert.Empty(t, st.CommittedPlan)
	assert.LessOrEqual(t, len(lines), 8)
	assert.Contains(t, lines[len(lines)-1], "cyclic dependency")
}

func TestDepbuild_TimesOutOnUnaffordableUpgrade(t *testing.T) {
	catalog, st := terranBase(0, nil)
	baseline := st.Clone()
	r := autobuild.Resolver{Horizon: 600}

	ok := r.Depbuild(st, baseline, autobuild.BuildEntry{Type: catalog.MustLookup("U_238_Shells")})

	assert.False(t, ok)
	assert.Equal(t, 0, st.Frame)
	assert.Empty(t, st.CommittedPlan)
}

func TestDepbuild_SideEffectCountsAsProgress(t *testing.T) {
	catalog, st := terranBase(300, map[string]int{"Terran_Barracks": 1})
	st.AutoBuildRefineries = true
	st.AvailableGases = 1

	ok := autobuild.Resolver{}.Depbuild(st, st.Clone(), autobuild.BuildEntry{Type: catalog.MustLookup("Terran_Factory")})

	assert.True(t, ok)
	require.Len(t, st.CommittedPlan, 1)
	assert.Equal(t, catalog.MustLookup("Terran_Refinery"), st.CommittedPlan[0].Entry.Type)
}

func TestNodelay_RestRidesAlongWhenItDoesNotDelayPriority(t *testing.T) {
	// Arrange
	catalog, st := terranBase(400, map[string]int{"Terran_Barracks": 1, "Terran_Refinery": 1})
	factory := autobuild.BuildEntry{Type: catalog.MustLookup("Terran_Factory")}
	marine := autobuild.BuildEntry{Type: catalog.MustLookup("Terran_Marine")}

	alone := st.Clone()
	require.True(t, autobuild.Resolver{}.Depbuild(alone, alone.Clone(), factory))

	// Act
	ok := autobuild.Resolver{}.Nodelay(st, factory, func(st *autobuild.SimState) bool {
		return autobuild.Resolver{}.Depbuild(st, st.Clone(), marine)
	})

	// Assert
	require.True(t, ok)
	require.Len(t, st.CommittedPlan, 2)
	assert.Equal(t, marine.Type, st.CommittedPlan[0].Entry.Type)
	assert.Equal(t, 0, st.CommittedPlan[0].Frame)
	assert.Equal(t, factory.Type, st.CommittedPlan[1].Entry.Type)
	assert.Equal(t, alone.Frame, st.CommittedPlan[1].Frame)
	assert.Greater(t, alone.Frame, 0)
}

func TestNodelay_PriorityWinsWhenRestWouldDelayIt(t *testing.T) {
	catalog, st := terranBase(50, map[string]int{"Terran_Barracks": 1})
	depot := autobuild.BuildEntry{Type: catalog.MustLookup("Terran_Supply_Depot")}
	marine := autobuild.BuildEntry{Type: catalog.MustLookup("Terran_Marine")}

	alone := st.Clone()
	require.True(t, autobuild.Resolver{}.Depbuild(alone, alone.Clone(), depot))

	ok := autobuild.Resolver{}.Nodelay(st, depot, func(st *autobuild.SimState) bool {
		return autobuild.Resolver{}.Depbuild(st, st.Clone(), marine)
	})

	require.True(t, ok)
	require.Len(t, st.CommittedPlan, 1)
	assert.Equal(t, depot.Type, st.CommittedPlan[0].Entry.Type)
	assert.Equal(t, alone.Frame, st.Frame)
}

func TestNodelay_RunsRestWhenPriorityFails(t *testing.T) {
	catalog := cycleCatalog()
	st := helpers.NewTestState(catalog, buildtype.RaceTerran, 100, map[string]int{"Base": 1, "Worker": 4})
	worker := autobuild.BuildEntry{Type: catalog.MustLookup("Worker")}

	ok := autobuild.Resolver{}.Nodelay(st, autobuild.BuildEntry{Type: catalog.MustLookup("TypeX")}, func(st *autobuild.SimState) bool {
		return autobuild.Resolver{}.Depbuild(st, st.Clone(), worker)
	})

	assert.True(t, ok)
	require.Len(t, st.CommittedPlan, 1)
	assert.Equal(t, worker.Type, st.CommittedPlan[0].Entry.Type)
}
