package autobuild

import (
	"fmt"

	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

const (
	// SlotFrames is how long a slot provider takes to grow one slot unit.
	SlotFrames = 342
	// MaxSlots is the number of slot units a provider can hold at once.
	MaxSlots = 3
	// Forever is returned by FramesUntil for types that are never coming.
	Forever = 1 << 30
	// BusyForever marks a producer that will never be idle again.
	BusyForever = int(^uint(0) >> 1)
)

// Position is a build location in walk tiles. The zero value means "anywhere".
type Position struct {
	X int
	Y int
}

// IsSet reports whether a concrete location was requested.
func (p Position) IsSet() bool {
	return p != Position{}
}

func (p Position) String() string {
	if !p.IsSet() {
		return "-"
	}
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// BuildEntry is a single request made to the scheduler.
type BuildEntry struct {
	Type        *buildtype.BuildType
	Pos         Position
	OnCommitted func()
}

// Matches compares type and position; callbacks are not part of identity.
func (e BuildEntry) Matches(o BuildEntry) bool {
	return e.Type == o.Type && e.Pos == o.Pos
}

func (e BuildEntry) String() string {
	if e.Pos.IsSet() {
		return e.Type.String() + "@" + e.Pos.String()
	}
	return e.Type.String()
}

// Producer is a completed instance capable of producing other types.
type Producer struct {
	Type      *buildtype.BuildType
	BusyUntil int
	Addon     *buildtype.BuildType
	// SlotTimer tracks slot unit growth for slot providers; the number of
	// available slots is (frame - SlotTimer) / SlotFrames.
	SlotTimer int
}

// ProductionItem is something under construction or research.
type ProductionItem struct {
	Frame int
	Type  *buildtype.BuildType
}

// PlanItem is a committed entry of the build order with its start frame.
type PlanItem struct {
	Frame int
	Entry BuildEntry
}

// SimState is the simulated game state of one planning tick. It has value
// semantics: Clone returns a copy that shares nothing mutable with the
// original, so speculative runs can be compared and discarded freely.
type SimState struct {
	Frame int
	Race  buildtype.Race

	Minerals float64
	Gas      float64

	MineralsPerFramePerGatherer float64
	GasPerFramePerGatherer      float64

	UsedSupply         [buildtype.NumRaces]float64
	MaxSupply          [buildtype.NumRaces]float64
	InProductionSupply [buildtype.NumRaces]float64

	Producers         map[*buildtype.BuildType][]Producer
	Researched        map[*buildtype.BuildType]bool
	Production        []ProductionItem
	CommittedPlan     []PlanItem
	MorphingProducers []Producer

	Workers        int
	Refineries     int
	AvailableGases int

	AutoBuildRefineries bool
	AutoBuildHatcheries bool
	IsExpanding         bool

	catalog *buildtype.Catalog
}

// NewSimState returns an empty state bound to a catalog, with automatic
// refinery and macro hatchery insertion enabled.
func NewSimState(catalog *buildtype.Catalog) *SimState {
	return &SimState{
		Producers:           make(map[*buildtype.BuildType][]Producer),
		Researched:          make(map[*buildtype.BuildType]bool),
		AutoBuildRefineries: true,
		AutoBuildHatcheries: true,
		catalog:             catalog,
	}
}

// Catalog returns the type table the state was built against.
func (st *SimState) Catalog() *buildtype.Catalog {
	return st.catalog
}

// Clone returns a deep copy.
func (st *SimState) Clone() *SimState {
	c := *st
	c.Producers = make(map[*buildtype.BuildType][]Producer, len(st.Producers))
	for t, list := range st.Producers {
		c.Producers[t] = append([]Producer(nil), list...)
	}
	c.Researched = make(map[*buildtype.BuildType]bool, len(st.Researched))
	for t, v := range st.Researched {
		c.Researched[t] = v
	}
	c.Production = append([]ProductionItem(nil), st.Production...)
	c.CommittedPlan = append([]PlanItem(nil), st.CommittedPlan...)
	c.MorphingProducers = append([]Producer(nil), st.MorphingProducers...)
	return &c
}

// CopyFrom overwrites st with a deep copy of other.
func (st *SimState) CopyFrom(other *SimState) {
	*st = *other.Clone()
}

// AddUnit adds a completed instance of t and applies its supply and
// worker/refinery bookkeeping.
func (st *SimState) AddUnit(t *buildtype.BuildType) {
	st.AddProducer(Producer{Type: t})
}

// AddProducer adds a completed instance with explicit timers.
func (st *SimState) AddProducer(p Producer) {
	t := p.Type
	st.Producers[t] = append(st.Producers[t], p)
	if t.IsWorker {
		st.Workers++
	}
	if t.IsRefinery {
		st.Refineries++
	}
	st.UsedSupply[t.Race] += t.SupplyRequired
	st.MaxSupply[t.Race] += t.SupplyProvided
}

func (st *SimState) removeProducer(t *buildtype.BuildType, idx int) {
	st.UsedSupply[t.Race] -= t.SupplyRequired
	st.MaxSupply[t.Race] -= t.SupplyProvided
	if t.IsWorker {
		st.Workers--
	}
	if t.IsRefinery {
		st.Refineries--
	}
	list := st.Producers[t]
	st.Producers[t] = append(list[:idx:idx], list[idx+1:]...)
}

// AddProduction inserts an in-progress item, keeping completion order.
func (st *SimState) AddProduction(frame int, t *buildtype.BuildType) {
	st.Production = emplace(st.Production, ProductionItem{Frame: frame, Type: t}, func(p ProductionItem) int { return p.Frame })
}

func (st *SimState) addPlan(frame int, e BuildEntry) {
	st.CommittedPlan = emplace(st.CommittedPlan, PlanItem{Frame: frame, Entry: e}, func(p PlanItem) int { return p.Frame })
}

// InsertPlan adds an entry to the committed plan at frame, after any entries
// already planned for the same frame.
func (st *SimState) InsertPlan(frame int, e BuildEntry) {
	st.addPlan(frame, e)
}

// emplace inserts item after the last element whose frame is not later,
// so equal frames keep insertion order.
func emplace[T any](list []T, item T, frameOf func(T) int) []T {
	frame := frameOf(item)
	i := len(list)
	for i > 0 && frameOf(list[i-1]) > frame {
		i--
	}
	list = append(list, item)
	copy(list[i+1:], list[i:])
	list[i] = item
	return list
}
