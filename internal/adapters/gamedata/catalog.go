package gamedata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// Type flags accepted in catalog files.
const (
	FlagAddon            = "addon"
	FlagResourceDepot    = "resource_depot"
	FlagWorker           = "worker"
	FlagRefinery         = "refinery"
	FlagSupplyDepot      = "supply_depot"
	FlagTwoUnitsInOneEgg = "two_units_in_one_egg"
	FlagSlotUnit         = "slot_unit"
	FlagSlotProvider     = "slot_provider"
	FlagEgg              = "egg"
	FlagPaired           = "paired"
	FlagSupplyExempt     = "supply_exempt"
	FlagOccupiesBuilder  = "occupies_builder"
)

// TypeDocument is one catalog entry as written in a catalog file
type TypeDocument struct {
	Name               string   `yaml:"name" json:"name" jsonschema:"title=Type name,description=Unique catalog name,minLength=1,required"`
	Race               string   `yaml:"race" json:"race" jsonschema:"enum=terran,enum=protoss,enum=zerg,required"`
	Category           string   `yaml:"category,omitempty" json:"category,omitempty" jsonschema:"enum=unit,enum=upgrade,enum=tech,description=Defaults to unit"`
	Level              int      `yaml:"level,omitempty" json:"level,omitempty" jsonschema:"minimum=0,description=Upgrade level"`
	MineralCost        int      `yaml:"mineral_cost,omitempty" json:"mineral_cost,omitempty" jsonschema:"minimum=0"`
	GasCost            int      `yaml:"gas_cost,omitempty" json:"gas_cost,omitempty" jsonschema:"minimum=0"`
	SupplyRequired     float64  `yaml:"supply_required,omitempty" json:"supply_required,omitempty" jsonschema:"minimum=0,description=Supply used in whole units"`
	SupplyProvided     float64  `yaml:"supply_provided,omitempty" json:"supply_provided,omitempty" jsonschema:"minimum=0"`
	BuildTime          int      `yaml:"build_time,omitempty" json:"build_time,omitempty" jsonschema:"minimum=0,description=Frames to build or research"`
	Builder            string   `yaml:"builder,omitempty" json:"builder,omitempty" jsonschema:"description=Type that produces this one"`
	Prerequisites      []string `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`
	Successor          string   `yaml:"successor,omitempty" json:"successor,omitempty" jsonschema:"description=In-place upgrade of this type"`
	AliasOf            string   `yaml:"alias_of,omitempty" json:"alias_of,omitempty" jsonschema:"description=Canonical type this form folds into"`
	RequestBuilderWith string   `yaml:"request_builder_with,omitempty" json:"request_builder_with,omitempty"`
	Flags              []string `yaml:"flags,omitempty" json:"flags,omitempty" jsonschema:"uniqueItems=true"`
}

// CatalogDocument is the root of a catalog file
type CatalogDocument struct {
	Version int            `yaml:"version" json:"version" jsonschema:"minimum=1,required"`
	Types   []TypeDocument `yaml:"types" json:"types" jsonschema:"minItems=1,required"`
}

// Definition converts the document into a catalog definition
func (d TypeDocument) Definition() (buildtype.Definition, error) {
	def := buildtype.Definition{
		Name:               d.Name,
		Race:               d.Race,
		Category:           d.Category,
		Level:              d.Level,
		MineralCost:        d.MineralCost,
		GasCost:            d.GasCost,
		SupplyRequired:     d.SupplyRequired,
		SupplyProvided:     d.SupplyProvided,
		BuildTime:          d.BuildTime,
		Builder:            d.Builder,
		Prerequisites:      d.Prerequisites,
		Successor:          d.Successor,
		AliasOf:            d.AliasOf,
		RequestBuilderWith: d.RequestBuilderWith,
	}
	for _, flag := range d.Flags {
		switch flag {
		case FlagAddon:
			def.Addon = true
		case FlagResourceDepot:
			def.ResourceDepot = true
		case FlagWorker:
			def.Worker = true
		case FlagRefinery:
			def.Refinery = true
		case FlagSupplyDepot:
			def.SupplyDepot = true
		case FlagTwoUnitsInOneEgg:
			def.TwoUnitsInOneEgg = true
		case FlagSlotUnit:
			def.SlotUnit = true
		case FlagSlotProvider:
			def.SlotProvider = true
		case FlagEgg:
			def.Egg = true
		case FlagPaired:
			def.Paired = true
		case FlagSupplyExempt:
			def.SupplyExempt = true
		case FlagOccupiesBuilder:
			def.OccupiesBuilder = true
		default:
			return buildtype.Definition{}, &buildtype.ErrMalformedType{Type: d.Name, Reason: fmt.Sprintf("unknown flag %q", flag)}
		}
	}
	return def, nil
}

// DecodeCatalog reads a YAML catalog document. Unknown keys are rejected.
func DecodeCatalog(r io.Reader) (*CatalogDocument, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc CatalogDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog is empty")
		}
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if len(doc.Types) == 0 {
		return nil, fmt.Errorf("catalog has no types")
	}
	return &doc, nil
}

// BuildCatalog resolves a document into a validated catalog
func BuildCatalog(doc *CatalogDocument) (*buildtype.Catalog, error) {
	defs := make([]buildtype.Definition, 0, len(doc.Types))
	for _, t := range doc.Types {
		def, err := t.Definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return buildtype.NewCatalog(defs)
}

// ParseCatalog decodes and resolves a YAML catalog
func ParseCatalog(data []byte) (*buildtype.Catalog, error) {
	doc, err := DecodeCatalog(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return BuildCatalog(doc)
}

// LoadCatalog reads the catalog file at path
func LoadCatalog(path string) (*buildtype.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}
