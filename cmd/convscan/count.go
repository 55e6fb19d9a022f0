package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/convscan/internal/corpus"
	"github.com/jonathan/convscan/internal/observability"
	"github.com/jonathan/convscan/internal/ranking"
	"github.com/jonathan/convscan/internal/schemas"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count pointer cast and transmute markers in detector reports",
	Long:  "Counts the lines holding cast::ptr-ptr and transmute::ptr-ptr markers in the report of every package under a corpus root, per package and in total.",
	RunE:  runCount,
}

var (
	countRoot       string
	countReportName string
	countOut        string
	countFormat     string
)

func init() {
	countCmd.Flags().StringVarP(&countRoot, "root", "r", "", "Corpus root directory, one subdirectory per package (required)")
	countCmd.Flags().StringVar(&countReportName, "report-name", "report.txt", "Report file name inside each package directory")
	countCmd.Flags().StringVarP(&countOut, "out", "o", "", "Output path (defaults to stdout)")
	countCmd.Flags().StringVar(&countFormat, "format", formatText, "Output format: text or json")

	if err := countCmd.MarkFlagRequired("root"); err != nil {
		panic(fmt.Sprintf("failed to mark root flag as required: %v", err))
	}

	rootCmd.AddCommand(countCmd)
}

func runCount(_ *cobra.Command, _ []string) error {
	return reportMarkers(countRoot, countReportName, countOut, countFormat)
}

func reportMarkers(root, reportName, out, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}

	listing, err := corpus.DiscoverListing(root, reportName)
	if err != nil {
		return err
	}
	summary, err := ranking.MarkerCounts(listing)
	if err != nil {
		return err
	}
	if verbose {
		observability.NewPrinter(os.Stdout).PrintMarkerSummary(summary)
	}

	if format == formatJSON {
		return writeJSONReport(out, schemas.MarkerSummarySchema, summary)
	}
	return writeOutput(out, func(w io.Writer) error {
		for _, pkg := range summary.Packages {
			if _, err := fmt.Fprintf(w, "%s,%d,%d\n", pkg.PackageID, pkg.Cast, pkg.Transmute); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "cast sum: %d\ntransmute sum: %d\n", summary.CastTotal, summary.TransmuteTotal)
		return err
	})
}
