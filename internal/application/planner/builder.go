package planner

import (
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// Strategy is a build order. The planner calls PreBuild once, BuildStep
// repeatedly until a step commits nothing or the horizon is reached, and
// PostBuild once, all against the same Builder.
type Strategy interface {
	Name() string
	PreBuild(b *Builder)
	BuildStep(b *Builder)
	PostBuild(b *Builder)
}

// Builder is the request API handed to strategy hooks. Requests made
// during one BuildStep form a chain: the last request has the highest
// priority and earlier ones only ride along when they do not delay it.
type Builder struct {
	state      *autobuild.SimState
	chain      *autobuild.RequestChain
	board      *Blackboard
	simulation bool
}

func newBuilder(st *autobuild.SimState, board *Blackboard, simulation bool) *Builder {
	return &Builder{
		state:      st,
		chain:      &autobuild.RequestChain{},
		board:      board,
		simulation: simulation,
	}
}

// State is the simulated state as of the current step.
func (b *Builder) State() *autobuild.SimState { return b.state }

// Catalog is the type table of the running game.
func (b *Builder) Catalog() *buildtype.Catalog { return b.state.Catalog() }

// IsSimulation reports a SimEvaluateFor run; flags are not posted then.
func (b *Builder) IsSimulation() bool { return b.simulation }

// Type looks up a catalog type by name. Unknown names panic, which aborts
// the tick.
func (b *Builder) Type(name string) *buildtype.BuildType {
	return b.state.Catalog().MustLookup(name)
}

// Board exposes the blackboard for reading strategy flags.
func (b *Builder) Board() *Blackboard { return b.board }

// PostFlag posts a blackboard value unless this is a simulation.
func (b *Builder) PostFlag(key string, value interface{}) {
	if b.simulation || b.board == nil {
		return
	}
	b.board.Post(key, value)
}

// Requests returns the entries queued during the current step.
func (b *Builder) Requests() []autobuild.BuildEntry { return b.chain.Entries() }

func (b *Builder) push(entry autobuild.BuildEntry) {
	if !entry.Type.IsUnit() && b.state.HasOrInProduction(entry.Type) {
		return
	}
	b.chain.Push(entry)
}

// Build requests one more t. Upgrades and tech that are owned or under
// research are ignored. When t names a RequestBuilderWith type that is
// already owned, its builder is requested first.
func (b *Builder) Build(t *buildtype.BuildType) {
	if !t.IsUnit() && b.state.HasOrInProduction(t) {
		return
	}
	if t.RequestBuilderWith != nil && t.Builder != nil && b.state.Has(t.RequestBuilderWith) {
		b.Build(t.Builder)
	}
	b.chain.Push(autobuild.BuildEntry{Type: t})
}

// BuildAt requests t at a specific position.
func (b *Builder) BuildAt(t *buildtype.BuildType, pos autobuild.Position) {
	b.push(autobuild.BuildEntry{Type: t, Pos: pos})
}

// BuildThen requests t and runs onCommitted once the executor reports the
// unit.
func (b *Builder) BuildThen(t *buildtype.BuildType, pos autobuild.Position, onCommitted func()) {
	b.push(autobuild.BuildEntry{Type: t, Pos: pos, OnCommitted: onCommitted})
}

// BuildN requests t unless n are owned or coming. It reports whether the
// target is already met.
func (b *Builder) BuildN(t *buildtype.BuildType, n int) bool {
	if b.state.CountPlusProduction(t) >= n {
		return true
	}
	b.Build(t)
	return false
}

// BuildNSimultaneous is BuildN that also stops while simultaneous t are in
// production.
func (b *Builder) BuildNSimultaneous(t *buildtype.BuildType, n, simultaneous int) bool {
	if simultaneous <= b.state.CountProduction(t) {
		return true
	}
	return b.BuildN(t, n)
}

// BuildNAt is BuildN placing any additional t at pos.
func (b *Builder) BuildNAt(t *buildtype.BuildType, n int, pos autobuild.Position) bool {
	if b.state.CountPlusProduction(t) >= n {
		return true
	}
	b.BuildAt(t, pos)
	return false
}

// Upgrade requests an upgrade or tech and reports whether it is done.
func (b *Builder) Upgrade(t *buildtype.BuildType) bool {
	if b.state.Has(t) {
		return true
	}
	b.BuildN(t, 1)
	return false
}
