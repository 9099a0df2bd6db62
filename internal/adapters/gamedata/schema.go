package gamedata

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema names accepted by SchemaFor.
const (
	SchemaCatalog  = "catalog"
	SchemaSnapshot = "snapshot"
)

// SchemaFor returns the JSON schema of a catalog or snapshot document
func SchemaFor(name string) (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	var schema *jsonschema.Schema
	switch name {
	case SchemaCatalog:
		schema = reflector.ReflectFromType(reflect.TypeOf(CatalogDocument{}))
		schema.Title = "Autobuild Type Catalog"
		schema.Description = "Build types, costs and dependencies the scheduler plans against."
	case SchemaSnapshot:
		schema = reflector.ReflectFromType(reflect.TypeOf(SnapshotDocument{}))
		schema.Title = "Autobuild Live Snapshot"
		schema.Description = "Live game state sent with every planning tick."
	default:
		return nil, fmt.Errorf("unknown schema %q (want %s or %s)", name, SchemaCatalog, SchemaSnapshot)
	}
	return schema, nil
}

// MarshalSchema renders a schema as indented JSON with a trailing newline
func MarshalSchema(schema *jsonschema.Schema) ([]byte, error) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
