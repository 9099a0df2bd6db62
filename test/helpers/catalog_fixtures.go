package helpers

import (
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// TestCatalogDefinitions returns a small Brood War subset covering every
// catalog flag the scheduler reacts to. Supply is in whole units.
func TestCatalogDefinitions() []buildtype.Definition {
	return []buildtype.Definition{
		// Terran
		{Name: "Terran_SCV", Race: "terran", MineralCost: 50, SupplyRequired: 1, BuildTime: 300, Builder: "Terran_Command_Center", Worker: true},
		{Name: "Terran_Command_Center", Race: "terran", MineralCost: 400, SupplyProvided: 10, BuildTime: 1800, Builder: "Terran_SCV", ResourceDepot: true},
		{Name: "Terran_Supply_Depot", Race: "terran", MineralCost: 100, SupplyProvided: 8, BuildTime: 600, Builder: "Terran_SCV", SupplyDepot: true},
		{Name: "Terran_Refinery", Race: "terran", MineralCost: 100, BuildTime: 600, Builder: "Terran_SCV", Refinery: true},
		{Name: "Terran_Barracks", Race: "terran", MineralCost: 150, BuildTime: 1200, Builder: "Terran_SCV", Prerequisites: []string{"Terran_Command_Center"}},
		{Name: "Terran_Marine", Race: "terran", MineralCost: 50, SupplyRequired: 1, BuildTime: 360, Builder: "Terran_Barracks"},
		{Name: "Terran_Factory", Race: "terran", MineralCost: 200, GasCost: 100, BuildTime: 1200, Builder: "Terran_SCV", Prerequisites: []string{"Terran_Barracks"}},
		{Name: "Terran_Machine_Shop", Race: "terran", MineralCost: 50, GasCost: 50, BuildTime: 600, Builder: "Terran_Factory", Addon: true},
		{Name: "Terran_Siege_Tank_Tank_Mode", Race: "terran", MineralCost: 150, GasCost: 100, SupplyRequired: 2, BuildTime: 750, Builder: "Terran_Factory", Prerequisites: []string{"Terran_Machine_Shop"}},
		{Name: "Terran_Siege_Tank_Siege_Mode", Race: "terran", AliasOf: "Terran_Siege_Tank_Tank_Mode"},
		{Name: "Terran_Nuclear_Silo", Race: "terran", MineralCost: 100, GasCost: 100, BuildTime: 600, Builder: "Terran_Command_Center", Addon: true},
		{Name: "Terran_Nuclear_Missile", Race: "terran", MineralCost: 200, GasCost: 200, SupplyRequired: 8, BuildTime: 1500, Builder: "Terran_Nuclear_Silo", OccupiesBuilder: true},
		{Name: "U_238_Shells", Race: "terran", Category: "upgrade", Level: 1, MineralCost: 150, GasCost: 150, BuildTime: 1500, Builder: "Terran_Barracks"},

		// Protoss
		{Name: "Protoss_Probe", Race: "protoss", MineralCost: 50, SupplyRequired: 1, BuildTime: 300, Builder: "Protoss_Nexus", Worker: true},
		{Name: "Protoss_Nexus", Race: "protoss", MineralCost: 400, SupplyProvided: 9, BuildTime: 1800, Builder: "Protoss_Probe", ResourceDepot: true},
		{Name: "Protoss_Pylon", Race: "protoss", MineralCost: 100, SupplyProvided: 8, BuildTime: 450, Builder: "Protoss_Probe", SupplyDepot: true},
		{Name: "Protoss_Assimilator", Race: "protoss", MineralCost: 100, BuildTime: 600, Builder: "Protoss_Probe", Refinery: true},
		{Name: "Protoss_Gateway", Race: "protoss", MineralCost: 150, BuildTime: 900, Builder: "Protoss_Probe", Prerequisites: []string{"Protoss_Nexus"}},
		{Name: "Protoss_Zealot", Race: "protoss", MineralCost: 100, SupplyRequired: 2, BuildTime: 600, Builder: "Protoss_Gateway"},
		{Name: "Protoss_High_Templar", Race: "protoss", MineralCost: 50, GasCost: 150, SupplyRequired: 2, BuildTime: 750, Builder: "Protoss_Gateway"},
		{Name: "Protoss_Archon", Race: "protoss", SupplyRequired: 4, BuildTime: 300, Builder: "Protoss_High_Templar", Paired: true},

		// Zerg
		{Name: "Zerg_Larva", Race: "zerg", SlotUnit: true},
		{Name: "Zerg_Egg", Race: "zerg", Egg: true},
		{Name: "Zerg_Drone", Race: "zerg", MineralCost: 50, SupplyRequired: 1, BuildTime: 300, Builder: "Zerg_Larva", Worker: true},
		{Name: "Zerg_Hatchery", Race: "zerg", MineralCost: 300, SupplyProvided: 1, BuildTime: 1800, Builder: "Zerg_Drone", ResourceDepot: true, SlotProvider: true, Successor: "Zerg_Lair"},
		{Name: "Zerg_Lair", Race: "zerg", MineralCost: 150, GasCost: 100, SupplyProvided: 1, BuildTime: 1500, Builder: "Zerg_Hatchery", Prerequisites: []string{"Zerg_Spawning_Pool"}, SlotProvider: true},
		{Name: "Zerg_Overlord", Race: "zerg", MineralCost: 100, SupplyProvided: 8, BuildTime: 600, Builder: "Zerg_Larva", SupplyDepot: true},
		{Name: "Zerg_Extractor", Race: "zerg", MineralCost: 50, BuildTime: 600, Builder: "Zerg_Drone", Refinery: true},
		{Name: "Zerg_Spawning_Pool", Race: "zerg", MineralCost: 200, BuildTime: 1200, Builder: "Zerg_Drone", Prerequisites: []string{"Zerg_Hatchery"}},
		{Name: "Zerg_Zergling", Race: "zerg", MineralCost: 50, SupplyRequired: 0.5, BuildTime: 420, Builder: "Zerg_Larva", Prerequisites: []string{"Zerg_Spawning_Pool"}, TwoUnitsInOneEgg: true},
		{Name: "Zerg_Hydralisk_Den", Race: "zerg", MineralCost: 100, GasCost: 50, BuildTime: 600, Builder: "Zerg_Drone", Prerequisites: []string{"Zerg_Spawning_Pool"}},
		{Name: "Zerg_Hydralisk", Race: "zerg", MineralCost: 75, GasCost: 25, SupplyRequired: 1, BuildTime: 420, Builder: "Zerg_Larva", Prerequisites: []string{"Zerg_Hydralisk_Den"}},
		{Name: "Lurker_Aspect", Race: "zerg", Category: "tech", MineralCost: 200, GasCost: 200, BuildTime: 1800, Builder: "Zerg_Hydralisk_Den", Prerequisites: []string{"Zerg_Lair"}},
		{Name: "Zerg_Lurker", Race: "zerg", MineralCost: 50, GasCost: 100, SupplyRequired: 2, BuildTime: 600, Builder: "Zerg_Hydralisk", Prerequisites: []string{"Lurker_Aspect"}, RequestBuilderWith: "Lurker_Aspect"},
		{Name: "Zerg_Lurker_Egg", Race: "zerg", AliasOf: "Zerg_Lurker"},
		{Name: "Metabolic_Boost", Race: "zerg", Category: "upgrade", Level: 1, MineralCost: 100, GasCost: 100, BuildTime: 1500, Builder: "Zerg_Spawning_Pool"},
	}
}

// NewTestCatalog builds the fixture catalog.
func NewTestCatalog() *buildtype.Catalog {
	return buildtype.MustNewCatalog(TestCatalogDefinitions())
}

// NewTestState returns a state with the given completed units and flat
// income rates, with automatic refineries and hatcheries disabled.
func NewTestState(catalog *buildtype.Catalog, race buildtype.Race, minerals float64, units map[string]int) *autobuild.SimState {
	st := autobuild.NewSimState(catalog)
	st.Race = race
	st.Minerals = minerals
	st.MineralsPerFramePerGatherer = 0.05
	st.GasPerFramePerGatherer = 0.07
	st.AutoBuildRefineries = false
	st.AutoBuildHatcheries = false
	for name, n := range units {
		t := catalog.MustLookup(name)
		for i := 0; i < n; i++ {
			st.AddUnit(t)
		}
	}
	return st
}
