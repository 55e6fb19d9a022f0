// Package ranking aggregates finding records into frequency statistics and
// joins them against external popularity tables.
package ranking

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TableError represents a failure loading an external metadata table
type TableError struct {
	Path    string
	Message string
	Cause   error
}

func (e *TableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("table error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("table error: %s: %s", e.Path, e.Message)
}

func (e *TableError) Unwrap() error {
	return e.Cause
}

// StarTable maps a package name (usually "owner/repo") to its star count
type StarTable map[string]int

// CrateMetadata is one row of the package metadata table
type CrateMetadata struct {
	CanonicalID string `json:"canonical_id"`
	Version     string `json:"version"`
	// PackageName is the key into the StarTable
	PackageName string `json:"package_name"`
}

// noRepository marks metadata rows without a known repository.
const noRepository = "none"

// NormalizeRepoKey reduces repository URLs such as
// "https://api.github.com/repos/owner/repo" to "owner/repo". Names that are
// not URL-like are returned trimmed but otherwise unchanged.
func NormalizeRepoKey(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, "/")
	name = strings.TrimSuffix(name, ".git")
	if !strings.Contains(name, "://") && strings.Count(name, "/") <= 1 {
		return name
	}
	parts := strings.Split(name, "/")
	if len(parts) < 2 {
		return name
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

// LoadStarTable reads "package_name,star_count" rows. Rows without a
// numeric star count (headers included) are skipped. A repeated name keeps
// the last count read.
func LoadStarTable(path string) (StarTable, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	stars := make(StarTable, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || count < 0 {
			continue
		}
		key := NormalizeRepoKey(row[0])
		if key == "" {
			continue
		}
		stars[key] = count
	}
	return stars, nil
}

// LoadCrateMetadata reads "canonical_id,version,package_name" rows in file
// order. Rows whose package name is empty or "none" are skipped.
func LoadCrateMetadata(path string) ([]CrateMetadata, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	meta := make([]CrateMetadata, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		name := NormalizeRepoKey(row[2])
		if name == "" || name == noRepository {
			continue
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			continue
		}
		meta = append(meta, CrateMetadata{
			CanonicalID: id,
			Version:     strings.TrimSpace(row[1]),
			PackageName: name,
		})
	}
	return meta, nil
}

func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &TableError{Path: path, Message: "failed to open table", Cause: err}
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.Comment = '#'

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Quoting errors only affect the row they occur in.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, &TableError{Path: path, Message: "failed to read table", Cause: err}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
