package gamedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/income"
)

// UnitDocument describes one or more identical live units
type UnitDocument struct {
	Type         string `yaml:"type" json:"type" jsonschema:"minLength=1,required"`
	Count        int    `yaml:"count,omitempty" json:"count,omitempty" jsonschema:"minimum=0,description=Number of identical units; defaults to 1"`
	Constructing string `yaml:"constructing,omitempty" json:"constructing,omitempty" jsonschema:"description=Type an egg or cocoon hatches into"`
	// Incomplete is the negation of the game's completed flag so that the
	// zero value is a finished unit.
	Incomplete            bool   `yaml:"incomplete,omitempty" json:"incomplete,omitempty"`
	Morphing              bool   `yaml:"morphing,omitempty" json:"morphing,omitempty"`
	RemainingBuildTime    int    `yaml:"remaining_build_time,omitempty" json:"remaining_build_time,omitempty" jsonschema:"minimum=0"`
	RemainingResearchTime int    `yaml:"remaining_research_time,omitempty" json:"remaining_research_time,omitempty" jsonschema:"minimum=0"`
	Upgrading             string `yaml:"upgrading,omitempty" json:"upgrading,omitempty"`
	Researching           string `yaml:"researching,omitempty" json:"researching,omitempty"`
	Addon                 string `yaml:"addon,omitempty" json:"addon,omitempty"`
	SlotUnits             int    `yaml:"slot_units,omitempty" json:"slot_units,omitempty" jsonschema:"minimum=0,maximum=3"`
	Associated            int    `yaml:"associated,omitempty" json:"associated,omitempty" jsonschema:"minimum=0"`
}

// IncomeDocument is the gatherer sample fed to the income tracker
type IncomeDocument struct {
	MineralGatherers int `yaml:"mineral_gatherers" json:"mineral_gatherers" jsonschema:"minimum=0"`
	GasGatherers     int `yaml:"gas_gatherers" json:"gas_gatherers" jsonschema:"minimum=0"`
}

// SnapshotDocument is a live game state as sent by the game client or
// stored in a snapshot file
type SnapshotDocument struct {
	Frame          int             `yaml:"frame" json:"frame" jsonschema:"minimum=0,required"`
	Minerals       float64         `yaml:"minerals" json:"minerals"`
	Gas            float64         `yaml:"gas" json:"gas"`
	UsedSupply     float64         `yaml:"used_supply" json:"used_supply"`
	MaxSupply      float64         `yaml:"max_supply" json:"max_supply"`
	MineralRate    float64         `yaml:"mineral_rate,omitempty" json:"mineral_rate,omitempty" jsonschema:"description=Minerals per frame per gatherer"`
	GasRate        float64         `yaml:"gas_rate,omitempty" json:"gas_rate,omitempty" jsonschema:"description=Gas per frame per gatherer"`
	AvailableGases int             `yaml:"available_gases,omitempty" json:"available_gases,omitempty"`
	Units          []UnitDocument  `yaml:"units" json:"units"`
	Researched     []string        `yaml:"researched,omitempty" json:"researched,omitempty"`
	Income         *IncomeDocument `yaml:"income,omitempty" json:"income,omitempty"`
}

// ErrUnknownName reports a snapshot that names a type missing from the
// catalog
type ErrUnknownName struct {
	Field string
	Name  string
}

func (e *ErrUnknownName) Error() string {
	return fmt.Sprintf("%s: unknown build type %q", e.Field, e.Name)
}

func resolve(catalog *buildtype.Catalog, field, name string) (*buildtype.BuildType, error) {
	if name == "" {
		return nil, nil
	}
	t, ok := catalog.Lookup(name)
	if !ok {
		return nil, &ErrUnknownName{Field: field, Name: name}
	}
	return t, nil
}

// Live resolves the document against catalog
func (d *SnapshotDocument) Live(catalog *buildtype.Catalog) (autobuild.LiveSnapshot, error) {
	snap := autobuild.LiveSnapshot{
		Frame:                       d.Frame,
		Minerals:                    d.Minerals,
		Gas:                         d.Gas,
		UsedSupply:                  d.UsedSupply,
		MaxSupply:                   d.MaxSupply,
		MineralsPerFramePerGatherer: d.MineralRate,
		GasPerFramePerGatherer:      d.GasRate,
		AvailableGases:              d.AvailableGases,
	}

	for i, u := range d.Units {
		field := fmt.Sprintf("units[%d]", i)
		live := autobuild.LiveUnit{
			Completed:             !u.Incomplete,
			Morphing:              u.Morphing,
			RemainingBuildTime:    u.RemainingBuildTime,
			RemainingResearchTime: u.RemainingResearchTime,
			SlotUnits:             u.SlotUnits,
			AssociatedCount:       u.Associated,
		}
		var err error
		if u.Type == "" {
			return autobuild.LiveSnapshot{}, fmt.Errorf("%s: type is required", field)
		}
		if live.Type, err = resolve(catalog, field+".type", u.Type); err != nil {
			return autobuild.LiveSnapshot{}, err
		}
		if live.ConstructingType, err = resolve(catalog, field+".constructing", u.Constructing); err != nil {
			return autobuild.LiveSnapshot{}, err
		}
		if live.UpgradingType, err = resolve(catalog, field+".upgrading", u.Upgrading); err != nil {
			return autobuild.LiveSnapshot{}, err
		}
		if live.ResearchingType, err = resolve(catalog, field+".researching", u.Researching); err != nil {
			return autobuild.LiveSnapshot{}, err
		}
		if live.Addon, err = resolve(catalog, field+".addon", u.Addon); err != nil {
			return autobuild.LiveSnapshot{}, err
		}

		n := u.Count
		if n == 0 {
			n = 1
		}
		for j := 0; j < n; j++ {
			snap.Units = append(snap.Units, live)
		}
	}

	for i, name := range d.Researched {
		t, err := resolve(catalog, fmt.Sprintf("researched[%d]", i), name)
		if err != nil {
			return autobuild.LiveSnapshot{}, err
		}
		snap.Researched = append(snap.Researched, t)
	}
	return snap, nil
}

// IncomeSample returns the income tracker sample carried by the document,
// or nil.
func (d *SnapshotDocument) IncomeSample() *income.Sample {
	if d.Income == nil {
		return nil
	}
	return &income.Sample{
		Frame:            d.Frame,
		Minerals:         d.Minerals,
		Gas:              d.Gas,
		MineralGatherers: d.Income.MineralGatherers,
		GasGatherers:     d.Income.GasGatherers,
	}
}

// DecodeSnapshotYAML reads a YAML snapshot document
func DecodeSnapshotYAML(r io.Reader) (*SnapshotDocument, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc SnapshotDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &doc, nil
}

// DecodeSnapshotJSON reads a JSON snapshot document
func DecodeSnapshotJSON(r io.Reader) (*SnapshotDocument, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc SnapshotDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &doc, nil
}

// LoadSnapshot reads a snapshot file, choosing the decoder by extension
func LoadSnapshot(path string) (*SnapshotDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DecodeSnapshotJSON(bytes.NewReader(data))
	}
	return DecodeSnapshotYAML(bytes.NewReader(data))
}
