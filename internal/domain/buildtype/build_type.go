package buildtype

// Category separates units from upgrades and tech.
type Category string

const (
	CategoryUnit    Category = "unit"
	CategoryUpgrade Category = "upgrade"
	CategoryTech    Category = "tech"
)

// BuildType is one immutable entry of the catalog. Instances are shared by
// pointer and compared by identity; nothing mutates them after the catalog
// is built.
type BuildType struct {
	Name     string
	Race     Race
	Category Category
	Level    int

	MineralCost    int
	GasCost        int
	SupplyRequired float64
	SupplyProvided float64
	BuildTime      int

	Builder       *BuildType
	Prerequisites []*BuildType

	// Successor is the in-place upgrade of this type (base tier to tier 2).
	// Prerequisite checks and counts walk this lineage.
	Successor *BuildType
	// AliasOf folds an alternate form into its canonical type (siege mode).
	AliasOf *BuildType
	// RequestBuilderWith makes a request for this type also request its
	// builder once the named type is owned.
	RequestBuilderWith *BuildType

	IsAddon            bool
	IsResourceDepot    bool
	IsWorker           bool
	IsRefinery         bool
	IsSupplyDepot      bool
	IsTwoUnitsInOneEgg bool

	// IsSlotUnit marks the shared multi-slot production source (larva).
	// Types built by it are produced from slot providers instead.
	IsSlotUnit     bool
	IsSlotProvider bool
	// IsEgg marks cocoon forms that stand in for the type they are
	// constructing.
	IsEgg bool
	// IsPaired types merge two builder instances and keep their supply.
	IsPaired bool
	// IsSupplyExempt morphs inherit the supply of their builder.
	IsSupplyExempt bool
	// OccupiesBuilder keeps the producer busy forever once committed.
	OccupiesBuilder bool
	// ConsumesBuilder is derived: zerg units morph from their builder.
	ConsumesBuilder bool
}

// IsUnit reports whether the type produces a unit or structure.
func (t *BuildType) IsUnit() bool {
	return t.Category == CategoryUnit
}

// IsUpgrade reports whether the type is a leveled upgrade.
func (t *BuildType) IsUpgrade() bool {
	return t.Category == CategoryUpgrade
}

// IsTech reports whether the type is a one-off research.
func (t *BuildType) IsTech() bool {
	return t.Category == CategoryTech
}

func (t *BuildType) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Lineage returns the type followed by every successor, base tier first.
func (t *BuildType) Lineage() []*BuildType {
	var out []*BuildType
	seen := make(map[*BuildType]bool)
	for cur := t; cur != nil && !seen[cur]; cur = cur.Successor {
		seen[cur] = true
		out = append(out, cur)
	}
	return out
}

// lineageDepth counts predecessors; used to order slot providers.
func (t *BuildType) lineageDepth(all []*BuildType) int {
	depth := 0
	cur := t
	for i := 0; i < len(all); i++ {
		var prev *BuildType
		for _, c := range all {
			if c.Successor == cur {
				prev = c
				break
			}
		}
		if prev == nil {
			break
		}
		depth++
		cur = prev
	}
	return depth
}
