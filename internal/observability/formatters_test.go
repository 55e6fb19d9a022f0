package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/convscan/internal/ranking"
	"github.com/jonathan/convscan/internal/types"
)

func init() {
	color.NoColor = true
}

func TestPrintScanSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintScanSummary(&types.ScanSummary{
		Profile: "lint", RunID: "9b2f", Packages: 11, Logs: 12, Scanned: 10, Cached: 4, Missing: 2,
		Records: 31, Failures: 3, FailedLogs: 2, Lines: 900, Headers: 34,
	})
	output := buf.String()

	assert.Contains(t, output, "SCAN SUMMARY")
	assert.Contains(t, output, "lint")
	assert.Contains(t, output, "9b2f")
	assert.Contains(t, output, "12 (10 scanned, 4 cached, 2 missing)")
	assert.Contains(t, output, "Packages:  11")
	assert.Contains(t, output, "Records:   31")
	assert.Contains(t, output, "3 in 2 logs")
}

func TestPrintScanSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintScanSummary(nil)
	assert.Empty(t, buf.String())
}

func TestPrintFailures(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	failures := make([]types.ScanFailure, 7)
	for i := range failures {
		failures[i] = types.ScanFailure{PackageID: fmt.Sprintf("pkg-%d.0.0", i), Line: i + 1, Reason: "parse error"}
	}
	p.PrintFailures(failures)
	output := buf.String()

	assert.Contains(t, output, "Found 7 failures")
	assert.Contains(t, output, "pkg-0.0.0:1")
	assert.NotContains(t, output, "pkg-6.0.0")
	assert.Contains(t, output, "... and 2 more failures")

	buf.Reset()
	p.PrintFailures(nil)
	assert.Contains(t, buf.String(), "none")
}

func TestPrintPatterns(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPatterns([]types.PatternCount{
		{Key: types.PatternKey{Kind: types.KindTransmute, FromType: "u32", ToType: "f32"}, Count: 3},
		{Key: types.PatternKey{Kind: types.KindBrokenLayout}, Count: 1},
	})
	output := buf.String()

	assert.Contains(t, output, "TOP PATTERNS")
	assert.Contains(t, output, "Total records: 4, distinct patterns: 2")
	assert.Contains(t, output, "transmute:u32>f32")
	assert.Contains(t, output, "broken-layout")
}

func TestPrintRanked(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRanked([]types.RankedPackage{
		{Rank: 1, CanonicalID: "serde", Version: "1.0.188", Stars: 8500, Findings: 2},
		{Rank: 2, CanonicalID: "bytes", Version: "1.4.0", Stars: 1700},
	})
	output := buf.String()

	assert.Contains(t, output, "#1  serde-1.0.188")
	assert.Contains(t, output, "Stars: 8500  Findings: 2")
	assert.Contains(t, output, "#2  bytes-1.4.0")

	buf.Reset()
	p.PrintRanked(nil)
	assert.Empty(t, buf.String())
}

func TestPrintMarkerSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintMarkerSummary(&ranking.MarkerSummary{
		Packages:  []ranking.PackageMarkers{{PackageID: "a", Cast: 2}},
		CastTotal: 2,
		Missing:   1,
	})
	output := buf.String()

	assert.Contains(t, output, "MARKER COUNTS")
	assert.Contains(t, output, "1 (1 missing reports)")
	assert.Contains(t, output, "Cast:      2")
}

func TestPrintBox_LinesHaveEqualWidth(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	long := strings.Repeat("very long type name ", 10)
	p.printBox("TITLE", "short\n"+long+"\n⚠ wide ✓ glyphs 漢字")

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, runewidth.StringWidth(line), "line %q", line)
	}
	assert.Contains(t, buf.String(), "...")
}
