// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Defaults applied by MergeWithDefaults when neither the config file nor a flag sets a value
const (
	DefaultRecordsPath  = "records.csv"
	DefaultFailuresPath = "fail.log"
)

// Config represents the CLI configuration that can be loaded from a JSON or TOML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Inputs
	Root    string `json:"root,omitempty" toml:"root"`       // Corpus root, one directory per package
	Listing string `json:"listing,omitempty" toml:"listing"` // "package,log_path" listing file
	LogName string `json:"log_name,omitempty" toml:"log_name"`

	// Scanning
	Profile string `json:"profile,omitempty" toml:"profile" validate:"omitempty,oneof=cast transmute lint bugs"`
	Jobs    int    `json:"jobs,omitempty" toml:"jobs" validate:"min=0,max=1024"`

	// Outputs
	Records  string `json:"records,omitempty" toml:"records"`   // Record store path
	Failures string `json:"failures,omitempty" toml:"failures"` // Failure list path
	CacheDir string `json:"cache_dir,omitempty" toml:"cache_dir"`

	// Ranking tables
	Stars    string `json:"stars,omitempty" toml:"stars"`
	Metadata string `json:"metadata,omitempty" toml:"metadata"`

	// Behavior
	Verbose     bool   `json:"verbose,omitempty" toml:"verbose"`                                    // Print detailed debug information
	DatabaseURL string `json:"database_url,omitempty" toml:"database_url" validate:"omitempty,url"` // PostgreSQL connection URL
}

// LoadConfig loads configuration from a JSON file, or a TOML file when the
// path ends in ".toml". Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
		return &cfg, nil
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	// Validate mutually exclusive fields
	if c.Root != "" && c.Listing != "" {
		return fmt.Errorf("config error: 'root' and 'listing' are mutually exclusive")
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// Validate input paths exist (if specified)
	if c.Root != "" {
		info, err := os.Stat(c.Root)
		if os.IsNotExist(err) {
			return fmt.Errorf("config error: corpus root not found: %s", c.Root)
		}
		if err == nil && !info.IsDir() {
			return fmt.Errorf("config error: corpus root is not a directory: %s", c.Root)
		}
	}

	if c.Listing != "" {
		if _, err := os.Stat(c.Listing); os.IsNotExist(err) {
			return fmt.Errorf("config error: listing file not found: %s", c.Listing)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Root == "" {
		result.Root = defaults.Root
	}
	if result.Listing == "" {
		result.Listing = defaults.Listing
	}
	if result.LogName == "" {
		result.LogName = defaults.LogName
	}
	if result.Profile == "" {
		result.Profile = defaults.Profile
	}
	if result.CacheDir == "" {
		result.CacheDir = defaults.CacheDir
	}
	if result.Stars == "" {
		result.Stars = defaults.Stars
	}
	if result.Metadata == "" {
		result.Metadata = defaults.Metadata
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.Records == "" {
		if defaults.Records != "" {
			result.Records = defaults.Records
		} else {
			result.Records = DefaultRecordsPath
		}
	}
	if result.Failures == "" {
		if defaults.Failures != "" {
			result.Failures = defaults.Failures
		} else {
			result.Failures = DefaultFailuresPath
		}
	}

	// Int fields: use default if zero
	if result.Jobs == 0 {
		result.Jobs = defaults.Jobs
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
