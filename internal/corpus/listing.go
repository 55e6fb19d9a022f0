// Package corpus runs log scans across every package of a corpus and merges the results.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/convscan/internal/types"
)

// ListingError represents a failure building a corpus listing
type ListingError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ListingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("listing error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("listing error: %s: %s", e.Path, e.Message)
}

func (e *ListingError) Unwrap() error {
	return e.Cause
}

// Entry maps one package to the logs produced for it
type Entry struct {
	PackageID string   `json:"package_id"`
	LogPaths  []string `json:"log_paths"`
}

// CorpusEntry returns the package metadata registered for this entry.
func (e Entry) CorpusEntry() types.CorpusEntry {
	return types.ParsePackageID(e.PackageID)
}

func (e Entry) validate() error {
	ce := e.CorpusEntry()
	return ce.Validate()
}

// Listing is the ordered set of packages in one run. Output order follows listing order.
type Listing []Entry

// Packages returns the CorpusEntry of every listed package, in order.
func (l Listing) Packages() []types.CorpusEntry {
	out := make([]types.CorpusEntry, 0, len(l))
	for _, e := range l {
		out = append(out, e.CorpusEntry())
	}
	return out
}

// LogCount returns the total number of log files in the listing.
func (l Listing) LogCount() int {
	n := 0
	for _, e := range l {
		n += len(e.LogPaths)
	}
	return n
}

// DiscoverListing treats every immediate subdirectory of root as a package
// whose log is root/<package>/<logName>. Packages are sorted by name. The
// log file is not required to exist; missing logs are reported by the scan.
func DiscoverListing(root, logName string) (Listing, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &ListingError{Path: root, Message: "failed to read corpus root", Cause: err}
	}

	listing := make(Listing, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		entry := Entry{
			PackageID: e.Name(),
			LogPaths:  []string{filepath.Join(root, e.Name(), logName)},
		}
		if err := entry.validate(); err != nil {
			return nil, &ListingError{Path: root, Message: fmt.Sprintf("invalid package directory %q", e.Name()), Cause: err}
		}
		listing = append(listing, entry)
	}

	sort.Slice(listing, func(i, j int) bool {
		return listing[i].PackageID < listing[j].PackageID
	})
	return listing, nil
}

// LoadListing reads "package,log_path" lines. Repeated package ids add logs
// to the first entry for that package; blank lines and '#' comments are skipped.
func LoadListing(path string) (Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ListingError{Path: path, Message: "failed to open listing", Cause: err}
	}
	defer func() { _ = f.Close() }()

	var listing Listing
	index := make(map[string]int)
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pkg, logPath, ok := strings.Cut(line, ",")
		pkg, logPath = strings.TrimSpace(pkg), strings.TrimSpace(logPath)
		if !ok || pkg == "" || logPath == "" {
			return nil, &ListingError{Path: path, Message: fmt.Sprintf("line %d: expected \"package,log_path\"", lineNo)}
		}
		if i, seen := index[pkg]; seen {
			listing[i].LogPaths = append(listing[i].LogPaths, logPath)
			continue
		}
		entry := Entry{PackageID: pkg, LogPaths: []string{logPath}}
		if err := entry.validate(); err != nil {
			return nil, &ListingError{Path: path, Message: fmt.Sprintf("line %d: invalid package %q", lineNo, pkg), Cause: err}
		}
		index[pkg] = len(listing)
		listing = append(listing, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, &ListingError{Path: path, Message: "failed to read listing", Cause: err}
	}
	return listing, nil
}

// ListingFromFailures rebuilds a listing from failure-list log paths. The
// package id is the name of the directory holding the log. Duplicates are
// dropped; first appearance fixes the order.
func ListingFromFailures(logPaths []string) Listing {
	var listing Listing
	index := make(map[string]int)
	seen := make(map[string]bool)
	for _, p := range logPaths {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		pkg := filepath.Base(filepath.Dir(p))
		if i, ok := index[pkg]; ok {
			listing[i].LogPaths = append(listing[i].LogPaths, p)
			continue
		}
		index[pkg] = len(listing)
		listing = append(listing, Entry{PackageID: pkg, LogPaths: []string{p}})
	}
	return listing
}

// isMissing reports whether err means the log file does not exist.
func isMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
