package autobuild

import (
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// LiveUnit is one of our units as reported by the game.
type LiveUnit struct {
	Type *buildtype.BuildType
	// ConstructingType is what an egg or cocoon will hatch into.
	ConstructingType *buildtype.BuildType
	Completed        bool
	Morphing         bool

	RemainingBuildTime    int
	RemainingResearchTime int
	UpgradingType         *buildtype.BuildType
	ResearchingType       *buildtype.BuildType

	Addon *buildtype.BuildType
	// SlotUnits is the number of slot units attached to this provider.
	SlotUnits int
	// AssociatedCount is the number of loaded payloads (a silo's missile).
	AssociatedCount int
}

// LiveSnapshot is a consistent read of the live game state.
type LiveSnapshot struct {
	Frame    int
	Minerals float64
	Gas      float64

	// Supply totals in whole units, as displayed in game.
	UsedSupply float64
	MaxSupply  float64

	MineralsPerFramePerGatherer float64
	GasPerFramePerGatherer      float64

	// AvailableGases counts free geysers a refinery could be placed on.
	AvailableGases int

	Units      []LiveUnit
	Researched []*buildtype.BuildType
}

// FromSnapshot builds the SimState a planning tick starts from.
func FromSnapshot(catalog *buildtype.Catalog, snap LiveSnapshot) *SimState {
	st := NewSimState(catalog)
	st.Frame = snap.Frame
	st.Minerals = snap.Minerals
	st.Gas = snap.Gas
	st.MineralsPerFramePerGatherer = snap.MineralsPerFramePerGatherer
	st.GasPerFramePerGatherer = snap.GasPerFramePerGatherer
	st.AvailableGases = snap.AvailableGases

	for _, u := range snap.Units {
		st.addLiveUnit(u)
	}
	for _, t := range snap.Researched {
		st.Researched[t] = true
	}

	// The live counters already include units in production.
	for _, r := range buildtype.Races() {
		st.UsedSupply[r] = snap.UsedSupply
		st.MaxSupply[r] = snap.MaxSupply
	}
	st.Race = inferRace(catalog, st)
	return st
}

func (st *SimState) addLiveUnit(u LiveUnit) {
	t := u.Type
	if t == nil {
		return
	}
	if t.AliasOf != nil {
		t = t.AliasOf
	}
	if u.UpgradingType != nil {
		st.AddProduction(st.Frame+u.RemainingResearchTime, u.UpgradingType)
	}
	if u.ResearchingType != nil {
		st.AddProduction(st.Frame+u.RemainingResearchTime, u.ResearchingType)
	}
	if t.IsSlotUnit {
		return
	}
	if t.IsEgg {
		t = u.ConstructingType
		if t == nil {
			return
		}
		if t.AliasOf != nil {
			t = t.AliasOf
		}
	}

	if !u.Completed || u.Morphing {
		st.AddProduction(st.Frame+u.RemainingBuildTime, t)
		if t.IsTwoUnitsInOneEgg {
			st.AddProduction(st.Frame+u.RemainingBuildTime, t)
		}
		// A new hatchery has no larva yet; only an in-place morph keeps
		// producing slots from the structure it replaces.
		if t.IsSlotProvider && u.Morphing && morphsFromSlotProvider(st.catalog, t) {
			st.MorphingProducers = append(st.MorphingProducers, Producer{
				Type:      t,
				BusyUntil: st.Frame + u.RemainingResearchTime,
				SlotTimer: st.Frame - SlotFrames*u.SlotUnits,
			})
		}
		st.InProductionSupply[t.Race] += t.SupplyProvided
		return
	}

	p := Producer{Type: t, Addon: u.Addon}
	if t.IsSlotProvider {
		p.BusyUntil = st.Frame + u.RemainingResearchTime
		p.SlotTimer = st.Frame - SlotFrames + u.RemainingBuildTime - SlotFrames*u.SlotUnits
	} else {
		p.BusyUntil = st.Frame + max(u.RemainingBuildTime, u.RemainingResearchTime)
	}
	if u.AssociatedCount > 0 && buildsOccupyingType(st.catalog, t) {
		p.BusyUntil = BusyForever
	}
	st.AddProducer(p)
}

func morphsFromSlotProvider(catalog *buildtype.Catalog, t *buildtype.BuildType) bool {
	for _, from := range catalog.All() {
		if from.Successor == t && from.IsSlotProvider {
			return true
		}
	}
	return false
}

func buildsOccupyingType(catalog *buildtype.Catalog, builder *buildtype.BuildType) bool {
	for _, t := range catalog.All() {
		if t.OccupiesBuilder && t.Builder == builder {
			return true
		}
	}
	return false
}

// inferRace picks the race with the most workers; ties go to the earlier race.
func inferRace(catalog *buildtype.Catalog, st *SimState) buildtype.Race {
	best := buildtype.RaceTerran
	bestCount := -1
	for _, r := range buildtype.Races() {
		worker := catalog.Roles(r).Worker
		if worker == nil {
			continue
		}
		if n := st.CountUnits(worker); n > bestCount {
			best, bestCount = r, n
		}
	}
	return best
}
