package autobuild

import "github.com/andrescamacho/autobuild-go/internal/domain/buildtype"

// HasUnit reports whether at least one completed instance of t exists.
func (st *SimState) HasUnit(t *buildtype.BuildType) bool {
	return len(st.Producers[t]) > 0
}

// Has reports whether t is owned: a completed unit, or a finished upgrade or
// research.
func (st *SimState) Has(t *buildtype.BuildType) bool {
	if t.IsUnit() {
		return st.HasUnit(t)
	}
	return st.Researched[t]
}

// CountUnits counts completed instances. For the slot unit it counts the
// slots currently grown on every slot provider.
func (st *SimState) CountUnits(t *buildtype.BuildType) int {
	if t.IsSlotUnit {
		n := 0
		for _, provider := range st.catalog.SlotProviders() {
			for _, p := range st.Producers[provider] {
				n += st.SlotCount(p)
			}
		}
		return n
	}
	return len(st.Producers[t])
}

// IsInProduction reports whether t is under construction or research.
func (st *SimState) IsInProduction(t *buildtype.BuildType) bool {
	for _, p := range st.Production {
		if p.Type == t {
			return true
		}
	}
	return false
}

// HasOrInProduction is Has or IsInProduction.
func (st *SimState) HasOrInProduction(t *buildtype.BuildType) bool {
	return st.Has(t) || st.IsInProduction(t)
}

// FramesUntil returns how long until t is owned: 0 if owned, the remaining
// time of the earliest production entry, or Forever.
func (st *SimState) FramesUntil(t *buildtype.BuildType) int {
	if st.Has(t) {
		return 0
	}
	for _, p := range st.Production {
		if p.Type == t {
			return p.Frame - st.Frame
		}
	}
	return Forever
}

// CountProduction counts in-progress entries of t.
func (st *SimState) CountProduction(t *buildtype.BuildType) int {
	n := 0
	for _, p := range st.Production {
		if p.Type == t {
			n++
		}
	}
	return n
}

// CountPlusProduction counts owned plus in-progress instances of t, including
// everything further along its successor lineage.
func (st *SimState) CountPlusProduction(t *buildtype.BuildType) int {
	n := 0
	if t.IsUnit() {
		n += st.CountUnits(t)
	} else if st.Has(t) {
		n++
	}
	n += st.CountProduction(t)
	if t.Successor != nil {
		n += st.CountPlusProduction(t.Successor)
	}
	return n
}

// SlotCount returns the slot units grown on a provider, clamped to MaxSlots.
func (st *SimState) SlotCount(p Producer) int {
	n := (st.Frame - p.SlotTimer) / SlotFrames
	if n > MaxSlots {
		n = MaxSlots
	}
	if n < 0 {
		n = 0
	}
	return n
}

// satisfiedByLineage reports whether a later tier of t is owned or coming,
// which satisfies a prerequisite on t itself.
func (st *SimState) satisfiedByLineage(t *buildtype.BuildType) bool {
	for next := t.Successor; next != nil; next = next.Successor {
		if st.HasOrInProduction(next) {
			return true
		}
	}
	return false
}

// AllPlannedBefore returns the committed plan entries starting before frame.
func (st *SimState) AllPlannedBefore(frame int) []PlanItem {
	var out []PlanItem
	for _, p := range st.CommittedPlan {
		if p.Frame >= frame {
			break
		}
		out = append(out, p)
	}
	return out
}
