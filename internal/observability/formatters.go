// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/jonathan/convscan/internal/ranking"
	"github.com/jonathan/convscan/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// titleColor is applied after padding so escape codes never count toward width.
var titleColor = color.New(color.FgCyan, color.Bold)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// fit truncates or pads s to exactly width terminal cells.
func fit(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", titleColor.Sprint(fit(title, inner)))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", fit(line, inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintScanSummary outputs the totals of a scan or retry.
func (p *Printer) PrintScanSummary(summary *types.ScanSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Profile:   %s\n", summary.Profile))
	if summary.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run:       %s\n", summary.RunID))
	}
	sb.WriteString(fmt.Sprintf("Packages:  %d\n", summary.Packages))
	sb.WriteString(fmt.Sprintf("Logs:      %d (%d scanned, %d cached, %d missing)\n",
		summary.Logs, summary.Scanned, summary.Cached, summary.Missing))
	sb.WriteString(fmt.Sprintf("Lines:     %d (%d headers)\n", summary.Lines, summary.Headers))
	sb.WriteString(fmt.Sprintf("Records:   %d\n", summary.Records))
	sb.WriteString(fmt.Sprintf("Failures:  %d", summary.Failures))
	if summary.FailedLogs > 0 {
		sb.WriteString(fmt.Sprintf(" in %d logs", summary.FailedLogs))
	}

	p.printBox("SCAN SUMMARY", sb.String())
}

// PrintFailures outputs the first scan failures of a run.
func (p *Printer) PrintFailures(failures []types.ScanFailure) {
	if len(failures) == 0 {
		p.printBox("SCAN FAILURES", "none")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d failures:\n\n", len(failures)))

	count := min(len(failures), maxItemsToShow)
	for i := 0; i < count; i++ {
		f := failures[i]
		sb.WriteString(fmt.Sprintf("⚠ %s:%d\n", f.PackageID, f.Line))
		sb.WriteString(fmt.Sprintf("  %s\n", f.Reason))
	}
	if len(failures) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more failures", len(failures)-maxItemsToShow))
	}

	p.printBox("SCAN FAILURES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPatterns outputs the most frequent conversion patterns.
func (p *Printer) PrintPatterns(counts []types.PatternCount) {
	if len(counts) == 0 {
		return
	}

	var sb strings.Builder
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	sb.WriteString(fmt.Sprintf("Total records: %d, distinct patterns: %d\n\n", total, len(counts)))

	count := min(len(counts), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("%5d  %s\n", counts[i].Count, counts[i].Key.String()))
	}
	if len(counts) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more patterns", len(counts)-maxItemsToShow))
	}

	p.printBox("TOP PATTERNS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRanked outputs the most popular packages of a ranking.
func (p *Printer) PrintRanked(ranked []types.RankedPackage) {
	if len(ranked) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total packages ranked: %d\n\n", len(ranked)))

	count := min(len(ranked), maxItemsToShow)
	for i := 0; i < count; i++ {
		pkg := ranked[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", pkg.Rank, pkg.VersionedID()))
		sb.WriteString(fmt.Sprintf("    Stars: %d", pkg.Stars))
		if pkg.Findings > 0 {
			sb.WriteString(fmt.Sprintf("  Findings: %d", pkg.Findings))
		}
		sb.WriteString("\n")
	}
	if len(ranked) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more packages", len(ranked)-maxItemsToShow))
	}

	p.printBox("TOP RANKED PACKAGES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMarkerSummary outputs corpus-wide marker totals.
func (p *Printer) PrintMarkerSummary(summary *ranking.MarkerSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Packages:  %d (%d missing reports)\n", len(summary.Packages), summary.Missing))
	sb.WriteString(fmt.Sprintf("Cast:      %d\n", summary.CastTotal))
	sb.WriteString(fmt.Sprintf("Transmute: %d", summary.TransmuteTotal))

	p.printBox("MARKER COUNTS", sb.String())
}
