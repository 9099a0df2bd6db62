package gamedata_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autobuild-go/internal/adapters/gamedata"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/test/helpers"
)

const smallCatalog = `
version: 1
types:
  - {name: Zerg_Larva, race: zerg, flags: [slot_unit]}
  - {name: Zerg_Egg, race: zerg, flags: [egg]}
  - {name: Zerg_Drone, race: zerg, mineral_cost: 50, supply_required: 1, build_time: 300, builder: Zerg_Larva, flags: [worker]}
  - {name: Zerg_Hatchery, race: zerg, mineral_cost: 300, supply_provided: 1, build_time: 1800, builder: Zerg_Drone, flags: [resource_depot, slot_provider]}
  - {name: Zerg_Overlord, race: zerg, mineral_cost: 100, supply_provided: 8, build_time: 600, builder: Zerg_Larva, flags: [supply_depot]}
  - {name: Zerg_Extractor, race: zerg, mineral_cost: 50, build_time: 600, builder: Zerg_Drone, flags: [refinery]}
  - {name: Zerg_Spawning_Pool, race: zerg, mineral_cost: 200, build_time: 1200, builder: Zerg_Drone, prerequisites: [Zerg_Hatchery]}
  - {name: Metabolic_Boost, race: zerg, category: upgrade, level: 1, mineral_cost: 100, gas_cost: 100, build_time: 1500, builder: Zerg_Spawning_Pool}
`

func TestParseCatalog_ResolvesReferencesAndFlags(t *testing.T) {
	// Act
	catalog, err := gamedata.ParseCatalog([]byte(smallCatalog))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 8, catalog.Len())

	drone := catalog.MustLookup("Zerg_Drone")
	assert.True(t, drone.IsWorker)
	assert.Equal(t, catalog.MustLookup("Zerg_Larva"), drone.Builder)
	assert.Equal(t, drone, catalog.Roles(buildtype.RaceZerg).Worker)

	pool := catalog.MustLookup("Zerg_Spawning_Pool")
	require.Len(t, pool.Prerequisites, 1)
	assert.Equal(t, catalog.MustLookup("Zerg_Hatchery"), pool.Prerequisites[0])

	boost := catalog.MustLookup("Metabolic_Boost")
	assert.Equal(t, buildtype.CategoryUpgrade, boost.Category)
	assert.Equal(t, 1, boost.Level)
	assert.Equal(t, []*buildtype.BuildType{catalog.MustLookup("Zerg_Hatchery")}, catalog.SlotProviders())
}

func TestParseCatalog_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "empty document",
			input:   "",
			wantErr: "catalog is empty",
		},
		{
			name:    "no types",
			input:   "version: 1\ntypes: []\n",
			wantErr: "catalog has no types",
		},
		{
			name:    "unknown key",
			input:   "version: 1\ntypes:\n  - {name: Zerg_Larva, race: zerg, colour: red}\n",
			wantErr: "failed to decode catalog",
		},
		{
			name:    "unknown flag",
			input:   "version: 1\ntypes:\n  - {name: Zerg_Larva, race: zerg, flags: [slot_unit, shiny]}\n",
			wantErr: `unknown flag "shiny"`,
		},
		{
			name:    "dangling builder",
			input:   "version: 1\ntypes:\n  - {name: Zerg_Drone, race: zerg, builder: Zerg_Larva}\n",
			wantErr: `builder references unknown type "Zerg_Larva"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			_, err := gamedata.ParseCatalog([]byte(tt.input))

			// Assert
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCatalog_UnknownFlagIsMalformedType(t *testing.T) {
	// Act
	_, err := gamedata.ParseCatalog([]byte("version: 1\ntypes:\n  - {name: X, race: zerg, flags: [shiny]}\n"))

	// Assert
	var malformed *buildtype.ErrMalformedType
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "X", malformed.Type)
}

func TestLoadCatalog_ShippedCatalogIsValid(t *testing.T) {
	// Act
	catalog, err := gamedata.LoadCatalog(filepath.Join("..", "..", "..", "configs", "catalog.yaml"))

	// Assert
	require.NoError(t, err)
	for _, race := range []buildtype.Race{buildtype.RaceTerran, buildtype.RaceProtoss, buildtype.RaceZerg} {
		roles := catalog.Roles(race)
		assert.NotNil(t, roles.Worker, race.String())
		assert.NotNil(t, roles.SupplyDepot, race.String())
		assert.NotNil(t, roles.Refinery, race.String())
	}
	providers := catalog.SlotProviders()
	require.Len(t, providers, 3)
	assert.Equal(t, "Zerg_Hive", providers[0].Name)
	assert.Equal(t, "Zerg_Hatchery", providers[2].Name)
	assert.True(t, catalog.MustLookup("Zerg_Lurker").ConsumesBuilder)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	// Act
	_, err := gamedata.LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read catalog")
}

const openingSnapshot = `
frame: 480
minerals: 180
used_supply: 5
max_supply: 9
mineral_rate: 0.05
units:
  - {type: Zerg_Hatchery, slot_units: 2}
  - {type: Zerg_Drone, count: 4}
  - {type: Zerg_Egg, constructing: Zerg_Drone, incomplete: true, remaining_build_time: 120}
researched: [Metabolic_Boost]
income: {mineral_gatherers: 4, gas_gatherers: 0}
`

func TestSnapshotDocument_LiveExpandsCountsAndResolvesNames(t *testing.T) {
	// Arrange
	catalog := helpers.NewTestCatalog()
	doc, err := gamedata.DecodeSnapshotYAML(strings.NewReader(openingSnapshot))
	require.NoError(t, err)

	// Act
	snap, err := doc.Live(catalog)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 480, snap.Frame)
	assert.Equal(t, 0.05, snap.MineralsPerFramePerGatherer)
	require.Len(t, snap.Units, 6)

	assert.Equal(t, catalog.MustLookup("Zerg_Hatchery"), snap.Units[0].Type)
	assert.Equal(t, 2, snap.Units[0].SlotUnits)
	assert.True(t, snap.Units[0].Completed)
	for _, u := range snap.Units[1:5] {
		assert.Equal(t, catalog.MustLookup("Zerg_Drone"), u.Type)
	}

	egg := snap.Units[5]
	assert.False(t, egg.Completed)
	assert.Equal(t, catalog.MustLookup("Zerg_Drone"), egg.ConstructingType)
	assert.Equal(t, 120, egg.RemainingBuildTime)
	assert.Equal(t, []*buildtype.BuildType{catalog.MustLookup("Metabolic_Boost")}, snap.Researched)

	sample := doc.IncomeSample()
	require.NotNil(t, sample)
	assert.Equal(t, 480, sample.Frame)
	assert.Equal(t, 4, sample.MineralGatherers)
}

func TestSnapshotDocument_LiveRejectsUnknownNames(t *testing.T) {
	// Arrange
	catalog := helpers.NewTestCatalog()
	doc := &gamedata.SnapshotDocument{
		Units: []gamedata.UnitDocument{
			{Type: "Zerg_Drone"},
			{Type: "Zerg_Egg", Constructing: "Zerg_Defiler"},
		},
	}

	// Act
	_, err := doc.Live(catalog)

	// Assert
	var unknown *gamedata.ErrUnknownName
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "units[1].constructing", unknown.Field)
	assert.Equal(t, "Zerg_Defiler", unknown.Name)
}

func TestSnapshotDocument_LiveRequiresUnitType(t *testing.T) {
	// Arrange
	doc := &gamedata.SnapshotDocument{Units: []gamedata.UnitDocument{{Count: 2}}}

	// Act
	_, err := doc.Live(helpers.NewTestCatalog())

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "units[0]: type is required")
}

func TestSnapshotDocument_NoIncomeSample(t *testing.T) {
	doc := &gamedata.SnapshotDocument{Frame: 10}
	assert.Nil(t, doc.IncomeSample())
}

func TestLoadSnapshot_ChoosesDecoderByExtension(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "tick.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"frame": 24, "minerals": 50, "units": [{"type": "Zerg_Drone", "count": 2}]}`), 0o644))
	yamlPath := filepath.Join(dir, "tick.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("frame: 48\nunits:\n  - {type: Zerg_Hatchery}\n"), 0o644))
	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"frame": 1, "mood": "happy"}`), 0o644))

	// Act
	fromJSON, jsonErr := gamedata.LoadSnapshot(jsonPath)
	fromYAML, yamlErr := gamedata.LoadSnapshot(yamlPath)
	_, badErr := gamedata.LoadSnapshot(badPath)

	// Assert
	require.NoError(t, jsonErr)
	assert.Equal(t, 24, fromJSON.Frame)
	require.Len(t, fromJSON.Units, 1)
	assert.Equal(t, 2, fromJSON.Units[0].Count)

	require.NoError(t, yamlErr)
	assert.Equal(t, 48, fromYAML.Frame)

	require.Error(t, badErr)
	assert.Contains(t, badErr.Error(), "unknown field")
}

func TestSchemaFor_DescribesDocuments(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		properties []string
		required   []string
	}{
		{
			name:       gamedata.SchemaCatalog,
			title:      "Autobuild Type Catalog",
			properties: []string{"version", "types"},
			required:   []string{"version", "types"},
		},
		{
			name:       gamedata.SchemaSnapshot,
			title:      "Autobuild Live Snapshot",
			properties: []string{"frame", "minerals", "units", "income"},
			required:   []string{"frame"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			schema, err := gamedata.SchemaFor(tt.name)
			require.NoError(t, err)
			data, err := gamedata.MarshalSchema(schema)
			require.NoError(t, err)

			// Assert
			var decoded struct {
				Title      string                     `json:"title"`
				Properties map[string]json.RawMessage `json:"properties"`
				Required   []string                   `json:"required"`
			}
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.title, decoded.Title)
			for _, p := range tt.properties {
				assert.Contains(t, decoded.Properties, p)
			}
			assert.ElementsMatch(t, tt.required, decoded.Required)
			assert.True(t, strings.HasSuffix(string(data), "\n"))
		})
	}
}

func TestSchemaFor_UnknownName(t *testing.T) {
	_, err := gamedata.SchemaFor("ledger")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema")
}

func TestPlanDocuments_RelativeToNow(t *testing.T) {
	// Arrange
	catalog := helpers.NewTestCatalog()
	plan := []autobuild.PlanItem{
		{Frame: 1440, Entry: autobuild.BuildEntry{Type: catalog.MustLookup("Zerg_Spawning_Pool"), Pos: autobuild.Position{X: 12, Y: 40}}},
		{Frame: 2000, Entry: autobuild.BuildEntry{Type: catalog.MustLookup("Zerg_Drone")}},
	}

	// Act
	docs := gamedata.PlanDocuments(plan, 1000)

	// Assert
	require.Len(t, docs, 2)
	assert.Equal(t, "Zerg_Spawning_Pool", docs[0].Type)
	assert.Equal(t, "1:00", docs[0].GameTime)
	assert.Equal(t, 440, docs[0].In)
	require.NotNil(t, docs[0].Position)
	assert.Equal(t, gamedata.PositionDocument{X: 12, Y: 40}, *docs[0].Position)
	assert.Nil(t, docs[1].Position)
	assert.Equal(t, 1000, docs[1].In)
}
