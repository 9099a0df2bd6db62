package autobuild_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/test/helpers"
)

func TestFromSnapshot_Zerg(t *testing.T) {
	// Arrange
	catalog := helpers.NewTestCatalog()
	get := catalog.MustLookup
	units := []autobuild.LiveUnit{
		{Type: get("Zerg_Hatchery"), Completed: true, RemainingBuildTime: 100, SlotUnits: 2},
		{Type: get("Zerg_Lair"), Completed: true, Morphing: true, RemainingBuildTime: 500, SlotUnits: 1},
		{Type: get("Zerg_Egg"), ConstructingType: get("Zerg_Zergling"), RemainingBuildTime: 200},
		{Type: get("Zerg_Lurker_Egg"), RemainingBuildTime: 300},
		{Type: get("Zerg_Spawning_Pool"), Completed: true, UpgradingType: get("Metabolic_Boost"), RemainingResearchTime: 600},
		{Type: get("Zerg_Larva"), Completed: true},
		{Type: get("Zerg_Larva"), Completed: true},
	}
	for i := 0; i < 4; i++ {
		units = append(units, autobuild.LiveUnit{Type: get("Zerg_Drone"), Completed: true})
	}
	snap := autobuild.LiveSnapshot{
		Frame:                       1000,
		Minerals:                    200,
		Gas:                         50,
		UsedSupply:                  9,
		MaxSupply:                   18,
		MineralsPerFramePerGatherer: 0.046,
		GasPerFramePerGatherer:      0.068,
		AvailableGases:              1,
		Units:                       units,
		Researched:                  []*buildtype.BuildType{get("Lurker_Aspect")},
	}

	// Act
	st := autobuild.FromSnapshot(catalog, snap)

	// Assert
	assert.Equal(t, buildtype.RaceZerg, st.Race)
	assert.Equal(t, 1000, st.Frame)
	assert.Equal(t, 9.0, st.UsedSupply[buildtype.RaceZerg])
	assert.Equal(t, 18.0, st.MaxSupply[buildtype.RaceZerg])
	assert.Equal(t, 1.0, st.InProductionSupply[buildtype.RaceZerg])
	assert.Equal(t, 4, st.Workers)
	assert.Equal(t, 1, st.AvailableGases)
	assert.True(t, st.Has(get("Lurker_Aspect")))

	require.Len(t, st.Production, 5)
	assert.Equal(t, get("Zerg_Zergling"), st.Production[0].Type)
	assert.Equal(t, get("Zerg_Zergling"), st.Production[1].Type)
	assert.Equal(t, 1200, st.Production[1].Frame)
	assert.Equal(t, get("Zerg_Lurker"), st.Production[2].Type)
	assert.Equal(t, get("Zerg_Lair"), st.Production[3].Type)
	assert.Equal(t, get("Metabolic_Boost"), st.Production[4].Type)
	assert.Equal(t, 1600, st.Production[4].Frame)

	require.Len(t, st.Producers[get("Zerg_Hatchery")], 1)
	hatchery := st.Producers[get("Zerg_Hatchery")][0]
	assert.Equal(t, 74, hatchery.SlotTimer)
	assert.Equal(t, 2, st.SlotCount(hatchery))
	assert.Equal(t, 1600, st.Producers[get("Zerg_Spawning_Pool")][0].BusyUntil)

	require.Len(t, st.MorphingProducers, 1)
	assert.Equal(t, 1000-autobuild.SlotFrames, st.MorphingProducers[0].SlotTimer)
	assert.Equal(t, 0, st.CountUnits(get("Zerg_Lair")))
}

func TestFromSnapshot_TerranFoldsAliasesAndOccupiedBuilders(t *testing.T) {
	catalog := helpers.NewTestCatalog()
	get := catalog.MustLookup
	snap := autobuild.LiveSnapshot{
		Frame:      2000,
		UsedSupply: 13,
		MaxSupply:  18,
		Units: []autobuild.LiveUnit{
			{Type: get("Terran_Command_Center"), Completed: true, Addon: get("Terran_Nuclear_Silo")},
			{Type: get("Terran_Nuclear_Silo"), Completed: true, AssociatedCount: 1},
			{Type: get("Terran_Siege_Tank_Siege_Mode"), Completed: true},
			{Type: get("Terran_Barracks"), Completed: true, RemainingBuildTime: 120},
			{Type: get("Terran_SCV"), Completed: true},
			{Type: get("Terran_SCV"), Completed: true},
			{Type: get("Terran_SCV"), Completed: true},
			{Type: get("Zerg_Drone"), Completed: true},
		},
	}

	st := autobuild.FromSnapshot(catalog, snap)

	assert.Equal(t, buildtype.RaceTerran, st.Race)
	assert.Equal(t, 1, st.CountUnits(get("Terran_Siege_Tank_Tank_Mode")))
	assert.Equal(t, 0, st.CountUnits(get("Terran_Siege_Tank_Siege_Mode")))
	assert.Equal(t, autobuild.BusyForever, st.Producers[get("Terran_Nuclear_Silo")][0].BusyUntil)
	assert.Equal(t, get("Terran_Nuclear_Silo"), st.Producers[get("Terran_Command_Center")][0].Addon)
	assert.Equal(t, 2120, st.Producers[get("Terran_Barracks")][0].BusyUntil)
	assert.Equal(t, 13.0, st.UsedSupply[buildtype.RaceTerran])
}

func TestFromSnapshot_RaceTieGoesToTerran(t *testing.T) {
	catalog := helpers.NewTestCatalog()
	snap := autobuild.LiveSnapshot{Units: []autobuild.LiveUnit{
		{Type: catalog.MustLookup("Zerg_Drone"), Completed: true},
		{Type: catalog.MustLookup("Terran_SCV"), Completed: true},
	}}

	assert.Equal(t, buildtype.RaceTerran, autobuild.FromSnapshot(catalog, snap).Race)
}

func TestFromSnapshot_UnfinishedHatcheryProducesNoSlots(t *testing.T) {
	// Arrange
	catalog := helpers.NewTestCatalog()
	get := catalog.MustLookup
	units := []autobuild.LiveUnit{
		{Type: get("Zerg_Hatchery"), RemainingBuildTime: 1500},
		{Type: get("Zerg_Overlord"), Completed: true},
	}
	for i := 0; i < 4; i++ {
		units = append(units, autobuild.LiveUnit{Type: get("Zerg_Drone"), Completed: true})
	}
	st := autobuild.FromSnapshot(catalog, autobuild.LiveSnapshot{
		Minerals:                    500,
		UsedSupply:                  4,
		MaxSupply:                   8,
		MineralsPerFramePerGatherer: 0.05,
		Units:                       units,
	})

	// Act
	res := autobuild.Advance(st, autobuild.BuildEntry{Type: get("Zerg_Drone")}, autobuild.DefaultDepbuildHorizon)

	// Assert
	assert.Empty(t, st.MorphingProducers)
	require.Equal(t, autobuild.Success, res.Outcome)
	require.Len(t, st.CommittedPlan, 1)
	assert.GreaterOrEqual(t, st.CommittedPlan[0].Frame, 1500)
	assert.Len(t, st.Producers[get("Zerg_Hatchery")], 1)
}
