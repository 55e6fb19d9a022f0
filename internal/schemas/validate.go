// Package schemas validates JSON reports against the JSON Schema files under schemas/.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema files shipped with the repository, relative to the repo root
const (
	PatternReportSchema  = "schemas/pattern_report.schema.json"
	RankedPackagesSchema = "schemas/ranked_packages.schema.json"
	ScanSummarySchema    = "schemas/scan_summary.schema.json"
	MarkerSummarySchema  = "schemas/marker_summary.schema.json"
)

// ResolveSchemaPath finds a schema shipped with the repository from the
// working directory or up to two levels below the repo root, so commands and
// package tests resolve the same file. It returns "" when nothing matches.
func ResolveSchemaPath(relativePath string) string {
	for _, candidate := range []string{
		relativePath,
		filepath.Join("..", relativePath),
		filepath.Join("..", "..", relativePath),
	} {
		if abs, err := existingFile(candidate); err == nil {
			return abs
		}
	}
	return ""
}

// existingFile returns the absolute form of path if it names a file.
func existingFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("file not found: %s", abs)
	}
	return abs, nil
}

func fileLoader(path string) (string, gojsonschema.JSONLoader, error) {
	abs, err := existingFile(path)
	if err != nil {
		return "", nil, err
	}
	return abs, gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(abs)), nil
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateJSON checks a JSON file on disk against a schema file.
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaAbs, schemaLoader, err := fileLoader(schemaPath)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	_, docLoader, err := fileLoader(jsonPath)
	if err != nil {
		return fmt.Errorf("document: %w", err)
	}
	return validate(schemaAbs, schemaLoader, docLoader)
}

// ValidateDocument checks an in-memory report value against a schema file.
// doc is converted through encoding/json, so struct tags apply.
func ValidateDocument(schemaPath string, doc any) error {
	schemaAbs, schemaLoader, err := fileLoader(schemaPath)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return validate(schemaAbs, schemaLoader, gojsonschema.NewGoLoader(doc))
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	return validate("(string schema)",
		gojsonschema.NewStringLoader(schemaContent),
		gojsonschema.NewStringLoader(jsonContent))
}

func validate(schemaName string, schemaLoader, documentLoader gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{Path: schemaName, Message: "could not compile schema or read document", Cause: err}
	}

	if result.Valid() {
		return nil
	}

	fields := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		fields = append(fields, FieldError{Field: field, Message: desc.Description()})
	}
	return &ValidationError{Errors: fields}
}
