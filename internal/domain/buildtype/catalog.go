package buildtype

import (
	"fmt"
	"sort"
)

// Definition is the catalog-file form of a BuildType. References to other
// types are by name and are resolved by NewCatalog.
type Definition struct {
	Name           string
	Race           string
	Category       string
	Level          int
	MineralCost    int
	GasCost        int
	SupplyRequired float64
	SupplyProvided float64
	BuildTime      int

	Builder            string
	Prerequisites      []string
	Successor          string
	AliasOf            string
	RequestBuilderWith string

	Addon            bool
	ResourceDepot    bool
	Worker           bool
	Refinery         bool
	SupplyDepot      bool
	TwoUnitsInOneEgg bool
	SlotUnit         bool
	SlotProvider     bool
	Egg              bool
	Paired           bool
	SupplyExempt     bool
	OccupiesBuilder  bool
}

// RaceRoles are the types the scheduler inserts on its own for a race.
type RaceRoles struct {
	Worker      *BuildType
	SupplyDepot *BuildType
	Refinery    *BuildType
}

// Catalog is the immutable table of build types for one game.
type Catalog struct {
	types         map[string]*BuildType
	ordered       []*BuildType
	roles         [NumRaces]RaceRoles
	slotUnit      *BuildType
	slotProviders []*BuildType
}

// NewCatalog resolves definitions into a validated catalog.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{types: make(map[string]*BuildType, len(defs))}

	for _, d := range defs {
		if d.Name == "" {
			return nil, &ErrMalformedType{Type: d.Name, Reason: "empty name"}
		}
		if _, dup := c.types[d.Name]; dup {
			return nil, &ErrMalformedType{Type: d.Name, Reason: "duplicate name"}
		}
		race, err := ParseRace(d.Race)
		if err != nil {
			return nil, &ErrMalformedType{Type: d.Name, Reason: err.Error()}
		}
		category := Category(d.Category)
		if category == "" {
			category = CategoryUnit
		}
		if category != CategoryUnit && category != CategoryUpgrade && category != CategoryTech {
			return nil, &ErrMalformedType{Type: d.Name, Reason: fmt.Sprintf("unknown category %q", d.Category)}
		}
		if d.MineralCost < 0 || d.GasCost < 0 || d.BuildTime < 0 {
			return nil, &ErrMalformedType{Type: d.Name, Reason: "negative cost or build time"}
		}
		t := &BuildType{
			Name:               d.Name,
			Race:               race,
			Category:           category,
			Level:              d.Level,
			MineralCost:        d.MineralCost,
			GasCost:            d.GasCost,
			SupplyRequired:     d.SupplyRequired,
			SupplyProvided:     d.SupplyProvided,
			BuildTime:          d.BuildTime,
			IsAddon:            d.Addon,
			IsResourceDepot:    d.ResourceDepot,
			IsWorker:           d.Worker,
			IsRefinery:         d.Refinery,
			IsSupplyDepot:      d.SupplyDepot,
			IsTwoUnitsInOneEgg: d.TwoUnitsInOneEgg,
			IsSlotUnit:         d.SlotUnit,
			IsSlotProvider:     d.SlotProvider,
			IsEgg:              d.Egg,
			IsPaired:           d.Paired,
			IsSupplyExempt:     d.SupplyExempt,
			OccupiesBuilder:    d.OccupiesBuilder,
		}
		c.types[t.Name] = t
		c.ordered = append(c.ordered, t)
	}

	for _, d := range defs {
		t := c.types[d.Name]
		ref := func(field, name string) (*BuildType, error) {
			if name == "" {
				return nil, nil
			}
			r, ok := c.types[name]
			if !ok {
				return nil, &ErrMalformedType{Type: d.Name, Reason: fmt.Sprintf("%s references unknown type %q", field, name)}
			}
			return r, nil
		}
		var err error
		if t.Builder, err = ref("builder", d.Builder); err != nil {
			return nil, err
		}
		if t.Successor, err = ref("successor", d.Successor); err != nil {
			return nil, err
		}
		if t.AliasOf, err = ref("alias_of", d.AliasOf); err != nil {
			return nil, err
		}
		if t.RequestBuilderWith, err = ref("request_builder_with", d.RequestBuilderWith); err != nil {
			return nil, err
		}
		for _, p := range d.Prerequisites {
			pt, err := ref("prerequisite", p)
			if err != nil {
				return nil, err
			}
			t.Prerequisites = append(t.Prerequisites, pt)
		}
	}

	for _, t := range c.ordered {
		if err := c.validate(t); err != nil {
			return nil, err
		}
		t.ConsumesBuilder = t.IsUnit() && t.Builder != nil &&
			t.Builder.Race == RaceZerg && !t.Builder.IsSlotUnit
	}

	if err := c.assignRoles(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewCatalog is NewCatalog for static tables; malformed input panics.
func MustNewCatalog(defs []Definition) *Catalog {
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) validate(t *BuildType) error {
	placeholder := t.IsSlotUnit || t.IsEgg || t.AliasOf != nil
	if t.Builder == nil && !placeholder {
		return &ErrMalformedType{Type: t.Name, Reason: "no builder"}
	}
	if t.Builder == t {
		return &ErrMalformedType{Type: t.Name, Reason: "builds itself"}
	}
	if t.IsAddon && !t.IsUnit() {
		return &ErrMalformedType{Type: t.Name, Reason: "addon must be a unit"}
	}
	if t.IsPaired && t.IsTwoUnitsInOneEgg {
		return &ErrMalformedType{Type: t.Name, Reason: "paired type cannot also be two-in-one"}
	}
	if t.Successor != nil {
		if t.Successor.Race != t.Race {
			return &ErrMalformedType{Type: t.Name, Reason: "successor of a different race"}
		}
		if lineageLoops(t) {
			return &ErrMalformedType{Type: t.Name, Reason: "successor lineage loops"}
		}
	}
	return nil
}

func lineageLoops(t *BuildType) bool {
	seen := make(map[*BuildType]bool)
	for cur := t; cur != nil; cur = cur.Successor {
		if seen[cur] {
			return true
		}
		seen[cur] = true
	}
	return false
}

func (c *Catalog) assignRoles() error {
	for _, t := range c.ordered {
		roles := &c.roles[t.Race]
		set := func(slot **BuildType, role string) error {
			if *slot != nil {
				return &ErrMalformedType{Type: t.Name, Reason: fmt.Sprintf("second %s for %s (already %s)", role, t.Race, (*slot).Name)}
			}
			*slot = t
			return nil
		}
		if t.IsWorker {
			if err := set(&roles.Worker, "worker"); err != nil {
				return err
			}
		}
		if t.IsSupplyDepot {
			if err := set(&roles.SupplyDepot, "supply depot"); err != nil {
				return err
			}
		}
		if t.IsRefinery {
			if err := set(&roles.Refinery, "refinery"); err != nil {
				return err
			}
		}
		if t.IsSlotUnit {
			if c.slotUnit != nil {
				return &ErrMalformedType{Type: t.Name, Reason: "second slot unit"}
			}
			c.slotUnit = t
		}
		if t.IsSlotProvider {
			c.slotProviders = append(c.slotProviders, t)
		}
	}
	for _, t := range c.ordered {
		roles := c.roles[t.Race]
		switch {
		case roles.Worker == nil:
			return &ErrMalformedType{Type: t.Name, Reason: fmt.Sprintf("no worker for %s", t.Race)}
		case roles.SupplyDepot == nil:
			return &ErrMalformedType{Type: t.Name, Reason: fmt.Sprintf("no supply depot for %s", t.Race)}
		case roles.Refinery == nil:
			return &ErrMalformedType{Type: t.Name, Reason: fmt.Sprintf("no refinery for %s", t.Race)}
		}
	}
	// Deepest tier first: a hive is preferred over a lair over a hatchery.
	sort.SliceStable(c.slotProviders, func(i, j int) bool {
		return c.slotProviders[i].lineageDepth(c.ordered) > c.slotProviders[j].lineageDepth(c.ordered)
	})
	return nil
}

// Lookup finds a type by catalog name.
func (c *Catalog) Lookup(name string) (*BuildType, bool) {
	t, ok := c.types[name]
	return t, ok
}

// Get finds a type by name or returns ErrUnknownType.
func (c *Catalog) Get(name string) (*BuildType, error) {
	t, ok := c.types[name]
	if !ok {
		return nil, &ErrUnknownType{Name: name}
	}
	return t, nil
}

// MustLookup panics on unknown names; for strategies written against a
// known catalog.
func (c *Catalog) MustLookup(name string) *BuildType {
	t, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return t
}

// All returns every type in definition order.
func (c *Catalog) All() []*BuildType {
	out := make([]*BuildType, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// OfCategory returns the types of one category in definition order.
func (c *Catalog) OfCategory(category Category) []*BuildType {
	var out []*BuildType
	for _, t := range c.ordered {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Roles returns the worker, supply and refinery types of a race. A race
// with no types in the catalog has none of them.
func (c *Catalog) Roles(r Race) RaceRoles {
	if r < 0 || int(r) >= NumRaces {
		return RaceRoles{}
	}
	return c.roles[r]
}

// SlotUnit returns the shared multi-slot production type, or nil.
func (c *Catalog) SlotUnit() *BuildType {
	return c.slotUnit
}

// SlotProviders returns the types that hold slot units, deepest tier first.
// The slice is shared and must not be modified.
func (c *Catalog) SlotProviders() []*BuildType {
	return c.slotProviders
}

// Len reports the number of types.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
