package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/convscan/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schemaFiles = []string{
	"pattern_report.schema.json",
	"ranked_packages.schema.json",
	"scan_summary.schema.json",
	"marker_summary.schema.json",
}

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(".", schemaFile))
			require.NoError(t, err, "should be able to read schema file")

			var schemaObj map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &schemaObj), "schema file should be valid JSON: %s", schemaFile)

			_, hasSchema := schemaObj["$schema"]
			_, hasProps := schemaObj["properties"]
			assert.True(t, hasSchema && hasProps, "schema should declare $schema and properties")
			assert.Equal(t, "object", schemaObj["type"])
		})
	}
}

func TestSchemaFiles_Loadable(t *testing.T) {
	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			// An empty object exercises schema loading; required fields make it invalid.
			err := schemas.ValidateDocument(schemaFile, map[string]any{})
			require.Error(t, err)
			_, ok := err.(*schemas.ValidationError)
			assert.True(t, ok, "schema should load and report missing fields, got %T: %v", err, err)
		})
	}
}

func TestMarkerSummarySchema(t *testing.T) {
	valid := `{
		"packages": [{"package_id": "bytes-1.4.0", "cast": 2, "transmute": 0}],
		"cast_total": 2,
		"transmute_total": 0,
		"missing": 1
	}`
	data, err := os.ReadFile("marker_summary.schema.json")
	require.NoError(t, err)

	assert.NoError(t, schemas.ValidateJSONString(string(data), valid))
	assert.Error(t, schemas.ValidateJSONString(string(data), `{"packages": [], "cast_total": -1, "transmute_total": 0, "missing": 0}`))
}
