package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/convscan/internal/observability"
	"github.com/jonathan/convscan/internal/ranking"
	"github.com/jonathan/convscan/internal/schemas"
	"github.com/jonathan/convscan/internal/store"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Count conversion patterns in a record store",
	Long:  "Groups the records of a record store by kind, source type and target type, and reports the groups most frequent first.",
	RunE:  runPatterns,
}

var (
	patternsRecords string
	patternsOut     string
	patternsFormat  string
	patternsTop     int
)

func init() {
	patternsCmd.Flags().StringVarP(&patternsRecords, "records", "i", "", "Record store to read (required)")
	patternsCmd.Flags().StringVarP(&patternsOut, "out", "o", "", "Output path (defaults to stdout)")
	patternsCmd.Flags().StringVar(&patternsFormat, "format", formatText, "Output format: text or json")
	patternsCmd.Flags().IntVar(&patternsTop, "top", 0, "Only report the N most frequent patterns (0 reports all)")

	if err := patternsCmd.MarkFlagRequired("records"); err != nil {
		panic(fmt.Sprintf("failed to mark records flag as required: %v", err))
	}

	rootCmd.AddCommand(patternsCmd)
}

func runPatterns(_ *cobra.Command, _ []string) error {
	return reportPatterns(patternsRecords, patternsOut, patternsFormat, patternsTop)
}

func reportPatterns(recordsPath, out, format string, top int) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if top < 0 {
		return fmt.Errorf("--top must be non-negative")
	}

	records, err := store.ReadRecords(recordsPath)
	if err != nil {
		return err
	}

	report := ranking.NewPatternReport(ranking.PatternFrequency(records), top)
	if verbose {
		observability.NewPrinter(os.Stdout).PrintPatterns(report.Patterns)
	}

	if format == formatJSON {
		return writeJSONReport(out, schemas.PatternReportSchema, report)
	}
	return writeOutput(out, func(w io.Writer) error {
		return ranking.WritePatterns(w, report.Patterns)
	})
}
