package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/convscan/internal/ranking"
)

var lineStatsCmd = &cobra.Command{
	Use:   "linestats",
	Short: "Summarize a file of per-package line counts",
	Long:  "Reads a file with one number per line (other lines are ignored) and prints the maximum, the sum and the count of the numbers.",
	RunE:  runLineStats,
}

var lineStatsInput string

func init() {
	lineStatsCmd.Flags().StringVarP(&lineStatsInput, "input", "i", "", "File of numeric lines (required)")

	if err := lineStatsCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}

	rootCmd.AddCommand(lineStatsCmd)
}

func runLineStats(_ *cobra.Command, _ []string) error {
	return reportLineStats(lineStatsInput, os.Stdout)
}

func reportLineStats(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	st, err := ranking.LineStats(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	_, err = fmt.Fprintf(w, "max %d\nsum %d\ncnt %d\n", st.Max, st.Sum, st.Count)
	return err
}
