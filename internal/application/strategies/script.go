package strategies

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// ScriptFile is the YAML form of a scripted build order.
//
//	name: nine_pool
//	race: zerg
//	flags:
//	  expand: false
//	steps:
//	  - build: Zerg_Drone
//	    count: 9
//	  - build: Zerg_Spawning_Pool
//	    count: 1
//	    when: Count("Zerg_Drone") >= 9
type ScriptFile struct {
	Name  string                 `yaml:"name"`
	Race  string                 `yaml:"race"`
	Flags map[string]interface{} `yaml:"flags"`
	Steps []ScriptStep           `yaml:"steps"`
}

// ScriptStep is one request of a scripted build order. Exactly one of
// Build and Upgrade is set. Without Count, Build always requests one more.
type ScriptStep struct {
	Build        string     `yaml:"build,omitempty"`
	Upgrade      string     `yaml:"upgrade,omitempty"`
	Count        int        `yaml:"count,omitempty"`
	Simultaneous int        `yaml:"simultaneous,omitempty"`
	At           *ScriptPos `yaml:"at,omitempty"`
	When         string     `yaml:"when,omitempty"`
}

// ScriptPos is a requested build location.
type ScriptPos struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// ParseScript decodes a YAML build order
func ParseScript(data []byte) (*ScriptFile, error) {
	var f ScriptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("script has no name")
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("script %s has no steps", f.Name)
	}
	return &f, nil
}

// ScriptEnv is the environment `when` conditions are evaluated in. Type
// names refer to catalog entries.
type ScriptEnv struct {
	b *planner.Builder
}

func (e ScriptEnv) lookup(name string) *buildtype.BuildType {
	t, ok := e.b.Catalog().Lookup(name)
	if !ok {
		panic(fmt.Sprintf("unknown type %q in condition", name))
	}
	return t
}

// Count is owned plus in-production instances of a type.
func (e ScriptEnv) Count(name string) int { return e.b.State().CountPlusProduction(e.lookup(name)) }

// Owned is completed instances of a type.
func (e ScriptEnv) Owned(name string) int { return e.b.State().CountUnits(e.lookup(name)) }

// Producing is in-production instances of a type.
func (e ScriptEnv) Producing(name string) int { return e.b.State().CountProduction(e.lookup(name)) }

// Has reports a completed unit or finished research.
func (e ScriptEnv) Has(name string) bool { return e.b.State().Has(e.lookup(name)) }

func (e ScriptEnv) Minerals() float64 { return e.b.State().Minerals }
func (e ScriptEnv) Gas() float64      { return e.b.State().Gas }
func (e ScriptEnv) Frame() int        { return e.b.State().Frame }
func (e ScriptEnv) Workers() int      { return e.b.State().Workers }

// Supply is used supply of the playing race.
func (e ScriptEnv) Supply() float64 { return e.b.State().UsedSupply[e.b.State().Race] }

// MaxSupply is available supply of the playing race.
func (e ScriptEnv) MaxSupply() float64 { return e.b.State().MaxSupply[e.b.State().Race] }

// Flag reads a blackboard flag as a bool.
func (e ScriptEnv) Flag(key string) bool { return e.b.Board().Bool(key, false) }

type compiledStep struct {
	build        *buildtype.BuildType
	upgrade      bool
	count        int
	simultaneous int
	pos          autobuild.Position
	when         *vm.Program
	whenSrc      string
}

// ScriptedStrategy runs a compiled ScriptFile. Steps are requested in file
// order, so later steps take priority over earlier ones.
type ScriptedStrategy struct {
	name  string
	flags map[string]interface{}
	steps []compiledStep
}

// CompileScript resolves type names and compiles conditions
func CompileScript(f *ScriptFile, catalog *buildtype.Catalog) (*ScriptedStrategy, error) {
	s := &ScriptedStrategy{name: f.Name, flags: f.Flags}
	for i, step := range f.Steps {
		name := step.Build
		upgrade := false
		if step.Upgrade != "" {
			if step.Build != "" {
				return nil, fmt.Errorf("%s step %d: build and upgrade are exclusive", f.Name, i+1)
			}
			name, upgrade = step.Upgrade, true
		}
		if name == "" {
			return nil, fmt.Errorf("%s step %d: nothing to build", f.Name, i+1)
		}
		t, err := catalog.Get(name)
		if err != nil {
			return nil, fmt.Errorf("%s step %d: %w", f.Name, i+1, err)
		}
		cs := compiledStep{build: t, upgrade: upgrade, count: step.Count, simultaneous: step.Simultaneous, whenSrc: step.When}
		if step.At != nil {
			cs.pos = autobuild.Position{X: step.At.X, Y: step.At.Y}
		}
		if step.When != "" {
			prog, err := expr.Compile(step.When, expr.Env(ScriptEnv{}), expr.AsBool())
			if err != nil {
				return nil, fmt.Errorf("%s step %d: compile condition %q: %w", f.Name, i+1, step.When, err)
			}
			cs.when = prog
		}
		s.steps = append(s.steps, cs)
	}
	return s, nil
}

func (s *ScriptedStrategy) Name() string { return s.name }

// PreBuild posts the script flags, sorted by key.
func (s *ScriptedStrategy) PreBuild(b *planner.Builder) {
	keys := make([]string, 0, len(s.flags))
	for k := range s.flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.PostFlag(k, s.flags[k])
	}
}

// BuildStep requests every step whose condition holds. A condition that
// fails to evaluate panics, aborting the tick.
func (s *ScriptedStrategy) BuildStep(b *planner.Builder) {
	env := ScriptEnv{b: b}
	for _, step := range s.steps {
		if step.when != nil {
			out, err := vm.Run(step.when, env)
			if err != nil {
				panic(fmt.Sprintf("condition %q: %v", step.whenSrc, err))
			}
			if ok, _ := out.(bool); !ok {
				continue
			}
		}
		s.request(b, step)
	}
}

func (s *ScriptedStrategy) request(b *planner.Builder, step compiledStep) {
	switch {
	case step.upgrade:
		b.Upgrade(step.build)
	case step.count > 0 && step.simultaneous > 0:
		b.BuildNSimultaneous(step.build, step.count, step.simultaneous)
	case step.count > 0 && step.pos.IsSet():
		b.BuildNAt(step.build, step.count, step.pos)
	case step.count > 0:
		b.BuildN(step.build, step.count)
	case step.pos.IsSet():
		b.BuildAt(step.build, step.pos)
	default:
		b.Build(step.build)
	}
}

func (s *ScriptedStrategy) PostBuild(b *planner.Builder) {}

// ScriptFactory returns a registry factory compiling f per session
func ScriptFactory(f *ScriptFile) planner.Factory {
	return func(catalog *buildtype.Catalog) (planner.Strategy, error) {
		return CompileScript(f, catalog)
	}
}

// LoadScripts registers every *.yaml and *.yml script in dir and returns
// the registered names.
func LoadScripts(registry *planner.Registry, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scripts dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		f, err := ParseScript(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if err := registry.Register(f.Name, ScriptFactory(f)); err != nil {
			return nil, err
		}
		names = append(names, f.Name)
	}
	return names, nil
}
