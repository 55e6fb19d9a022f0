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
	"github.com/jonathan/convscan/internal/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank packages by popularity",
	Long: `Joins package metadata ("canonical_id,version,package_name") against a star table
("package_name,star_count") and lists the joined packages most-starred first. With --records only
packages that have findings are ranked; --buggy-only further keeps packages with bug reports.
Packages missing from either table are left out.`,
	RunE: runRank,
}

var (
	rankStars     string
	rankMetadata  string
	rankRecords   string
	rankBuggyOnly bool
	rankOut       string
	rankFormat    string
)

func init() {
	rankCmd.Flags().StringVarP(&rankStars, "stars", "s", "", "Star table path")
	rankCmd.Flags().StringVarP(&rankMetadata, "metadata", "m", "", "Package metadata table path")
	rankCmd.Flags().StringVarP(&rankRecords, "records", "i", "", "Record store; restricts the ranking to packages with findings")
	rankCmd.Flags().BoolVar(&rankBuggyOnly, "buggy-only", false, "Only rank packages with bug-kind records (requires --records)")
	rankCmd.Flags().StringVarP(&rankOut, "out", "o", "", "Output path (defaults to stdout)")
	rankCmd.Flags().StringVar(&rankFormat, "format", formatText, "Output format: text or json")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("stars") {
		cfg.Stars = rankStars
	}
	if cmd.Flags().Changed("metadata") {
		cfg.Metadata = rankMetadata
	}
	if cfg.Stars == "" || cfg.Metadata == "" {
		return fmt.Errorf("--stars and --metadata must be provided (via flag or config)")
	}

	return reportRanking(rankOptions{
		Stars:     cfg.Stars,
		Metadata:  cfg.Metadata,
		Records:   rankRecords,
		BuggyOnly: rankBuggyOnly,
		Out:       rankOut,
		Format:    rankFormat,
	})
}

type rankOptions struct {
	Stars     string
	Metadata  string
	Records   string
	BuggyOnly bool
	Out       string
	Format    string
}

func reportRanking(opts rankOptions) error {
	if err := checkFormat(opts.Format); err != nil {
		return err
	}
	if opts.BuggyOnly && opts.Records == "" {
		return fmt.Errorf("--buggy-only requires --records")
	}

	stars, err := ranking.LoadStarTable(opts.Stars)
	if err != nil {
		return err
	}
	meta, err := ranking.LoadCrateMetadata(opts.Metadata)
	if err != nil {
		return err
	}
	verbosef("loaded %d star entries and %d metadata rows", len(stars), len(meta))

	var records []types.Record
	var findings map[string]int
	if opts.Records != "" {
		records, err = store.ReadRecords(opts.Records)
		if err != nil {
			return err
		}
		findings = ranking.FindingCounts(records)
	}

	ranked := ranking.RankByPopularity(findings, stars, meta)
	if opts.BuggyOnly {
		ranked = ranking.BuggyByPopularity(ranked, records)
	}
	if verbose {
		observability.NewPrinter(os.Stdout).PrintRanked(ranked)
	}

	if opts.Format == formatJSON {
		entries, err := ranking.PopularityEntries(ranked)
		if err != nil {
			return err
		}
		return writeJSONReport(opts.Out, schemas.RankedPackagesSchema, &types.RankedPackages{Ranked: ranked, Packages: entries})
	}
	return writeOutput(opts.Out, func(w io.Writer) error {
		return ranking.WriteRanking(w, ranked)
	})
}
