package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/convscan/internal/config"
	"github.com/jonathan/convscan/internal/schemas"
)

// Output formats accepted by report commands
const (
	formatText = "text"
	formatJSON = "json"
)

// loadConfig reads and validates the --config file. Without one an empty
// Config is returned so flags and defaults decide everything.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Config{}, nil
	}

	loadedCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := loadedCfg.Validate(); err != nil {
		return config.Config{}, err
	}

	// The flag wins when given explicitly
	if !rootCmd.PersistentFlags().Changed("verbose") {
		verbose = loadedCfg.Verbose
	}
	verbosef("Loaded config from: %s", configPath)
	return *loadedCfg, nil
}

func checkFormat(format string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unsupported --format %q (want %s or %s)", format, formatText, formatJSON)
	}
	return nil
}

// writeOutput runs write against path, or stdout when path is empty or "-".
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return f.Close()
}

// writeJSONReport writes doc as indented JSON and checks it against the
// named schema. Schema problems are reported as warnings only.
func writeJSONReport(path, schemaRelPath string, doc any) error {
	jsonOutput, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}

	if err := writeOutput(path, func(w io.Writer) error {
		_, err := w.Write(append(jsonOutput, '\n'))
		return err
	}); err != nil {
		return err
	}

	// Validate output against schema (optional - non-fatal)
	if schemaPath := schemas.ResolveSchemaPath(schemaRelPath); schemaPath != "" {
		if err := schemas.ValidateDocument(schemaPath, doc); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: Output validation failed: %v\n", err)
		}
	}
	return nil
}

func verbosef(format string, args ...any) {
	if verbose {
		_, _ = fmt.Fprintf(os.Stdout, "[VERBOSE] "+format+"\n", args...)
	}
}
