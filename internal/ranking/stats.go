package ranking

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jonathan/convscan/internal/corpus"
)

// Detector report markers counted by MarkerCounts
const (
	CastMarker      = "cast::ptr-ptr"
	TransmuteMarker = "transmute::ptr-ptr"
)

const maxReportLine = 1 << 20

// PackageMarkers holds marker line counts for one package
type PackageMarkers struct {
	PackageID string `json:"package_id"`
	Cast      int    `json:"cast"`
	Transmute int    `json:"transmute"`
}

// MarkerSummary is the result of counting markers across a corpus
type MarkerSummary struct {
	Packages       []PackageMarkers `json:"packages"`
	CastTotal      int              `json:"cast_total"`
	TransmuteTotal int              `json:"transmute_total"`
	// Missing counts packages with no report file
	Missing int `json:"missing"`
}

// CountMarkers counts the lines of r containing each marker. A line holding
// both markers counts once for each.
func CountMarkers(r io.Reader) (PackageMarkers, error) {
	var pm PackageMarkers
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxReportLine)
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, CastMarker) {
			pm.Cast++
		}
		if strings.Contains(line, TransmuteMarker) {
			pm.Transmute++
		}
	}
	return pm, sc.Err()
}

// MarkerCounts counts marker lines in every report of the listing, in
// listing order. Packages whose reports are all missing are skipped.
func MarkerCounts(listing corpus.Listing) (*MarkerSummary, error) {
	summary := &MarkerSummary{Packages: []PackageMarkers{}}
	for _, entry := range listing {
		pkg := PackageMarkers{PackageID: entry.PackageID}
		found := false
		for _, path := range entry.LogPaths {
			pm, err := countFile(path)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			found = true
			pkg.Cast += pm.Cast
			pkg.Transmute += pm.Transmute
		}
		if !found {
			summary.Missing++
			continue
		}
		summary.Packages = append(summary.Packages, pkg)
		summary.CastTotal += pkg.Cast
		summary.TransmuteTotal += pkg.Transmute
	}
	return summary, nil
}

func countFile(path string) (PackageMarkers, error) {
	f, err := os.Open(path)
	if err != nil {
		return PackageMarkers{}, err
	}
	defer func() { _ = f.Close() }()

	pm, err := CountMarkers(f)
	if err != nil {
		return pm, &TableError{Path: path, Message: "failed to read report", Cause: err}
	}
	return pm, nil
}

// LineStatistics summarizes the numeric lines of a file
type LineStatistics struct {
	Max   int64 `json:"max"`
	Sum   int64 `json:"sum"`
	Count int   `json:"count"`
}

// LineStats reads r and aggregates every line that, after trailing
// whitespace is removed, consists only of ASCII digits. Other lines are ignored.
func LineStats(r io.Reader) (LineStatistics, error) {
	var st LineStatistics
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		data := strings.TrimRight(sc.Text(), " \t\r\n")
		if !isDigits(data) {
			continue
		}
		n, err := strconv.ParseInt(data, 10, 64)
		if err != nil {
			return st, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if n > math.MaxInt64-st.Sum {
			return st, fmt.Errorf("line %d: sum overflows int64", lineNo)
		}
		st.Sum += n
		st.Max = max(st.Max, n)
		st.Count++
	}
	return st, sc.Err()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
