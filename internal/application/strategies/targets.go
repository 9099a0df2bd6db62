package strategies

import (
	"fmt"

	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// DefaultName is the registry name of the stock target list.
const DefaultName = "default"

// Target is one entry of a target list. N < 0 means "always one more".
type Target struct {
	Type *buildtype.BuildType
	N    int
}

// TargetSpec names a target before catalog resolution.
type TargetSpec struct {
	Type string
	N    int
}

// DefaultTargets is the stock zerg list: keep adding hydralisks, with
// drones up to 60 preferred over them, a floor of 20 hydralisks preferred
// over that, and 20 drones above everything.
var DefaultTargets = []TargetSpec{
	{Type: "Zerg_Hydralisk", N: -1},
	{Type: "Zerg_Drone", N: 60},
	{Type: "Zerg_Hydralisk", N: 20},
	{Type: "Zerg_Drone", N: 20},
}

// TargetsStrategy requests every target on every step, in list order, so
// later targets take priority over earlier ones.
type TargetsStrategy struct {
	name    string
	targets []Target
}

// NewTargetsStrategy resolves specs against catalog
func NewTargetsStrategy(name string, catalog *buildtype.Catalog, specs []TargetSpec) (*TargetsStrategy, error) {
	targets := make([]Target, 0, len(specs))
	for _, spec := range specs {
		t, err := catalog.Get(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", spec.Type, err)
		}
		targets = append(targets, Target{Type: t, N: spec.N})
	}
	return &TargetsStrategy{name: name, targets: targets}, nil
}

func (s *TargetsStrategy) Name() string { return s.name }

// Targets returns the resolved list
func (s *TargetsStrategy) Targets() []Target {
	return append([]Target(nil), s.targets...)
}

func (s *TargetsStrategy) PreBuild(b *planner.Builder) {}

func (s *TargetsStrategy) BuildStep(b *planner.Builder) {
	for _, t := range s.targets {
		if t.N < 0 {
			b.Build(t.Type)
		} else {
			b.BuildN(t.Type, t.N)
		}
	}
}

func (s *TargetsStrategy) PostBuild(b *planner.Builder) {}

// TargetsFactory returns a registry factory for a fixed target list
func TargetsFactory(name string, specs []TargetSpec) planner.Factory {
	return func(catalog *buildtype.Catalog) (planner.Strategy, error) {
		return NewTargetsStrategy(name, catalog, specs)
	}
}
