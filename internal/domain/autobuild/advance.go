package autobuild

import (
	"fmt"
	"math"

	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// Outcome classifies the result of a single Advance call.
type Outcome int

const (
	// Success: the request was committed to production and the plan.
	Success Outcome = iota
	// Failed: the request cannot be satisfied now (supply cap reached).
	Failed
	// TimedOut: the deadline passed before anything was decided.
	TimedOut
	// BlockedOn: another type must be built or researched first.
	BlockedOn
	// SideEffectBuilt: a refinery or supply structure was inserted instead;
	// the caller should retry.
	SideEffectBuilt
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case TimedOut:
		return "timeout"
	case BlockedOn:
		return "blocked"
	case SideEffectBuilt:
		return "builtdep"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// AdvanceResult is the outcome of Advance; Blocker is set for BlockedOn.
type AdvanceResult struct {
	Outcome Outcome
	Blocker *buildtype.BuildType
}

func (r AdvanceResult) String() string {
	if r.Outcome == BlockedOn {
		return "blocked on " + r.Blocker.String()
	}
	return r.Outcome.String()
}

const (
	// StepFrames bounds each simulated time step.
	StepFrames = 15
	// SupplyCap is the hard population limit; reaching it fails the request.
	SupplyCap = 200.0

	// Supply structures are inserted automatically only once the capacity
	// passed the opening (more than supplyWaitMax) or nothing is coming;
	// below supplyBootstrapMax the depot is requested as a dependency.
	supplyWaitMax      = 10.0
	supplyBootstrapMax = 16.0

	incomeEfficiency    = 0.85
	minMineralRate      = 0.05
	minGasRate          = 0.1
	maxGasWorkersPerGas = 3
	workersPerGasWorker = 4
)

var (
	resultSuccess  = AdvanceResult{Outcome: Success}
	resultFailed   = AdvanceResult{Outcome: Failed}
	resultTimedOut = AdvanceResult{Outcome: TimedOut}
	resultBuiltDep = AdvanceResult{Outcome: SideEffectBuilt}
)

func blocked(t *buildtype.BuildType) AdvanceResult {
	return AdvanceResult{Outcome: BlockedOn, Blocker: t}
}

// Advance moves st forward until entry is committed or deadline is reached,
// whichever comes first. A nil entry type only passes time.
//
// Advance panics on an entry whose type has no builder; catalogs reject such
// types at load time.
func Advance(st *SimState, entry BuildEntry, deadline int) AdvanceResult {
	build := entry.Type
	if st.Frame >= deadline {
		return resultTimedOut
	}
	if build != nil && build.Builder == nil {
		panic(fmt.Sprintf("autobuild: %s has no builder", build.Name))
	}

	var addonRequired *buildtype.BuildType
	prereqPending := false
	if build != nil {
		for _, prereq := range build.Prerequisites {
			if prereq.IsSlotUnit {
				continue
			}
			// An addon built by our own builder means only producers carrying
			// that addon can build this type.
			if prereq.IsAddon && prereq.Builder == build.Builder && !build.Builder.IsAddon {
				addonRequired = prereq
			}
			if st.Has(prereq) || st.satisfiedByLineage(prereq) {
				continue
			}
			if !st.IsInProduction(prereq) {
				return blocked(prereq)
			}
			prereqPending = true
		}
	}

	var roles buildtype.RaceRoles
	if build != nil {
		roles = st.catalog.Roles(build.Race)
	}

	for {
		if st.completeProduction() && prereqPending {
			prereqPending = st.prerequisitesPending(build)
		}

		if build != nil {
			hasMinerals := build.MineralCost == 0 || st.Minerals >= float64(build.MineralCost)
			hasGas := build.GasCost == 0 || st.Gas >= float64(build.GasCost)

			if st.tryAutoRefinery(build, roles.Refinery, hasMinerals, hasGas) {
				return resultBuiltDep
			}

			hasSupply := true
			if needsSupply(build) {
				race := build.Race
				next := st.UsedSupply[race] + build.SupplyRequired
				if next >= SupplyCap {
					return resultFailed
				}
				if next > st.MaxSupply[race]+st.InProductionSupply[race] {
					hasSupply = false
					if st.MaxSupply[race] > supplyWaitMax || len(st.Production) == 0 {
						depot := roles.SupplyDepot
						if depot == nil {
							return resultFailed
						}
						if st.MaxSupply[race] < supplyBootstrapMax {
							return blocked(depot)
						}
						if st.Minerals >= float64(depot.MineralCost) {
							st.addBuilt(depot, true)
							return resultBuiltDep
						}
					}
				}
			}

			if hasMinerals && hasGas && hasSupply && !prereqPending {
				if res, decided := st.commit(entry, addonRequired); decided {
					return res
				}
			}
		}

		st.passTime(deadline)
		if st.Frame >= deadline {
			return resultTimedOut
		}
	}
}

func needsSupply(t *buildtype.BuildType) bool {
	return t.IsUnit() && t.SupplyRequired > 0 && !t.IsSupplyExempt && !t.IsPaired
}

// completeProduction applies every production entry due by the current
// frame. It reports whether anything completed.
func (st *SimState) completeProduction() bool {
	completed := false
	for len(st.Production) > 0 && st.Frame >= st.Production[0].Frame {
		t := st.Production[0].Type
		st.Production = st.Production[1:]
		completed = true
		if !t.IsUnit() {
			st.Researched[t] = true
			continue
		}
		st.InProductionSupply[t.Race] -= t.SupplyProvided
		st.UsedSupply[t.Race] -= t.SupplyRequired
		st.AddUnit(t)
		if t.Builder != nil && t.Builder.IsSlotProvider && len(st.MorphingProducers) > 0 {
			st.MorphingProducers = st.MorphingProducers[:len(st.MorphingProducers)-1]
		}
	}
	return completed
}

func (st *SimState) prerequisitesPending(build *buildtype.BuildType) bool {
	for _, prereq := range build.Prerequisites {
		if prereq.IsSlotUnit {
			continue
		}
		if !st.Has(prereq) && !st.satisfiedByLineage(prereq) {
			return true
		}
	}
	return false
}

func (st *SimState) tryAutoRefinery(build, refinery *buildtype.BuildType, hasMinerals, hasGas bool) bool {
	if !st.AutoBuildRefineries || st.AvailableGases <= 0 || refinery == nil {
		return false
	}
	if !hasMinerals || hasGas {
		return false
	}
	if st.Minerals < float64(build.MineralCost+refinery.MineralCost) {
		return false
	}
	st.addBuilt(refinery, false)
	st.AvailableGases--
	return true
}

// addBuilt inserts an unrequested structure as already complete. Supply
// structures are backdated by their build time so they are dispatched
// immediately.
func (st *SimState) addBuilt(t *buildtype.BuildType, backdate bool) {
	frame := st.Frame
	if backdate {
		frame -= t.BuildTime
	}
	st.addPlan(frame, BuildEntry{Type: t})
	st.AddUnit(t)
	st.Minerals -= float64(t.MineralCost)
	st.Gas -= float64(t.GasCost)
}

type producerRef struct {
	typ      *buildtype.BuildType
	idx      int
	morphing bool
}

func (st *SimState) producer(ref producerRef) *Producer {
	if ref.morphing {
		return &st.MorphingProducers[ref.idx]
	}
	return &st.Producers[ref.typ][ref.idx]
}

// commit picks a producer for entry and puts it into production. decided is
// false when the caller should keep waiting.
func (st *SimState) commit(entry BuildEntry, addonRequired *buildtype.BuildType) (res AdvanceResult, decided bool) {
	build := entry.Type
	var chosen, second producerRef
	found, exists, paired := false, false, false

	if build.Builder.IsSlotUnit {
		found, exists, chosen = st.pickSlotProvider()
	} else {
		list := st.Producers[build.Builder]
		for i, p := range list {
			if build.IsAddon && p.Addon != nil {
				continue
			}
			if addonRequired != nil && p.Addon != addonRequired {
				continue
			}
			exists = true
			if st.Frame >= p.BusyUntil {
				chosen = producerRef{typ: build.Builder, idx: i}
				found = true
				break
			}
		}
		if found && build.IsPaired {
			others := 0
			for i, p := range list {
				if i == chosen.idx {
					continue
				}
				others++
				if st.Frame >= p.BusyUntil {
					second = producerRef{typ: build.Builder, idx: i}
					paired = true
					break
				}
			}
			if !paired {
				found = false
				exists = others > 0
			}
		}
	}

	if !found && !exists {
		if build.Builder.IsSlotUnit {
			providers := st.catalog.SlotProviders()
			if len(providers) == 0 {
				return resultFailed, true
			}
			for _, p := range providers {
				if st.HasOrInProduction(p) {
					return AdvanceResult{}, false
				}
			}
			return blocked(providers[len(providers)-1]), true
		}
		if !st.IsInProduction(build.Builder) {
			if addonRequired != nil {
				return blocked(addonRequired), true
			}
			return blocked(build.Builder), true
		}
	}
	if !found {
		return AdvanceResult{}, false
	}

	p := st.producer(chosen)
	if build.Builder.IsSlotUnit {
		if st.Frame-p.SlotTimer >= SlotFrames*MaxSlots {
			p.SlotTimer = st.Frame - SlotFrames*(MaxSlots-1)
		} else {
			p.SlotTimer += SlotFrames
		}
	} else {
		p.BusyUntil = st.Frame + build.BuildTime
	}
	if build.OccupiesBuilder {
		p.BusyUntil = BusyForever
	}
	if build.IsResourceDepot && entry.Pos.IsSet() {
		st.IsExpanding = true
	}
	if build.IsAddon {
		p.Addon = build
	}

	copies := 1
	if build.IsTwoUnitsInOneEgg {
		copies = 2
	}
	for i := 0; i < copies; i++ {
		st.InProductionSupply[build.Race] += build.SupplyProvided
		st.UsedSupply[build.Race] += build.SupplyRequired
		st.AddProduction(st.Frame+build.BuildTime, build)
	}
	st.addPlan(st.Frame, entry)
	st.Minerals -= float64(build.MineralCost)
	st.Gas -= float64(build.GasCost)

	switch {
	case build.ConsumesBuilder:
		morphed := *p
		if morphed.Type.IsSlotProvider {
			st.MorphingProducers = append(st.MorphingProducers, morphed)
		}
		st.removeProducer(chosen.typ, chosen.idx)
	case build.IsPaired:
		hi, lo := chosen.idx, second.idx
		if lo > hi {
			hi, lo = lo, hi
		}
		st.removeProducer(build.Builder, hi)
		st.removeProducer(build.Builder, lo)
	}
	return resultSuccess, true
}

// pickSlotProvider chooses the provider whose slot timer is furthest past one
// slot, scanning the deepest tier first and falling back to providers that
// are mid-morph.
func (st *SimState) pickSlotProvider() (found, exists bool, ref producerRef) {
	best := 0
	for _, provider := range st.catalog.SlotProviders() {
		for i, p := range st.Producers[provider] {
			exists = true
			if t := st.Frame - p.SlotTimer; t >= SlotFrames && t > best {
				best = t
				ref = producerRef{typ: provider, idx: i}
				found = true
			}
		}
		if found {
			return found, exists, ref
		}
	}
	for i, p := range st.MorphingProducers {
		exists = true
		if t := st.Frame - p.SlotTimer; t >= SlotFrames && t > best {
			best = t
			ref = producerRef{idx: i, morphing: true}
			found = true
		}
	}
	return found, exists, ref
}

// passTime steps the clock by at most StepFrames, crediting income
// extrapolated from the per-gatherer rates.
func (st *SimState) passTime(deadline int) {
	f := min(StepFrames, deadline-st.Frame)
	gasWorkers := min(maxGasWorkersPerGas*st.Refineries, st.Workers/workersPerGasWorker)
	if gasWorkers < 0 {
		gasWorkers = 0
	}
	mineralWorkers := st.Workers - gasWorkers
	gasRate := math.Max(st.GasPerFramePerGatherer, minGasRate) * incomeEfficiency
	mineralRate := math.Max(st.MineralsPerFramePerGatherer, minMineralRate) * incomeEfficiency
	st.Minerals += mineralRate * float64(mineralWorkers) * float64(f)
	st.Gas += gasRate * float64(gasWorkers) * float64(f)
	st.Frame += f
}
