package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/convscan/internal/config"
	"github.com/jonathan/convscan/internal/corpus"
	"github.com/jonathan/convscan/internal/db"
	"github.com/jonathan/convscan/internal/observability"
	"github.com/jonathan/convscan/internal/parsing"
	"github.com/jonathan/convscan/internal/scancache"
	"github.com/jonathan/convscan/internal/schemas"
	"github.com/jonathan/convscan/internal/store"
	"github.com/jonathan/convscan/internal/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan every package log of a corpus into a record store",
	Long: `Scans the diagnostic log of every package in a corpus and appends the extracted records to
the record store. Logs whose headers fail to parse are written to the failure list for a later retry.

The corpus is either a root directory holding one directory per package (--root) or a listing
file of "package,log_path" lines (--listing). Configuration can be loaded from a file using --config.
Command-line arguments override config file values.`,
	RunE: runScan,
}

var (
	scanRoot        string
	scanListing     string
	scanProfile     string
	scanLogName     string
	scanJobs        int
	scanOut         string
	scanFailures    string
	scanFresh       bool
	scanCacheDir    string
	scanDatabaseURL string
	scanSummary     string
)

func init() {
	scanCmd.Flags().StringVarP(&scanRoot, "root", "r", "", "Corpus root directory, one subdirectory per package")
	scanCmd.Flags().StringVarP(&scanListing, "listing", "l", "", "Listing file of \"package,log_path\" lines")
	scanCmd.Flags().StringVarP(&scanProfile, "profile", "p", parsing.DefaultProfile, "Scan profile: cast, transmute, lint or bugs")
	scanCmd.Flags().StringVar(&scanLogName, "log-name", "", "Log file name inside each package directory (defaults to the profile's log)")
	scanCmd.Flags().IntVarP(&scanJobs, "jobs", "j", 0, "Number of logs scanned concurrently (defaults to the CPU count)")
	scanCmd.Flags().StringVarP(&scanOut, "out", "o", "", "Record store path (default \"records.csv\")")
	scanCmd.Flags().StringVar(&scanFailures, "failures", "", "Failure list path (default \"fail.log\")")
	scanCmd.Flags().BoolVar(&scanFresh, "fresh", false, "Truncate the record store and failure list instead of appending")
	scanCmd.Flags().StringVar(&scanCacheDir, "cache-dir", "", "Directory for cached per-log scan results")
	scanCmd.Flags().StringVar(&scanDatabaseURL, "database-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	scanCmd.Flags().StringVar(&scanSummary, "summary", "", "Write a JSON scan summary to this path")

	rootCmd.AddCommand(scanCmd)
}

// scanOptions is the fully merged input of one scan or retry
type scanOptions struct {
	Root        string
	Listing     string
	Profile     parsing.Profile
	LogName     string
	Jobs        int
	Out         string
	Failures    string
	Fresh       bool
	CacheDir    string
	DatabaseURL string
	SummaryPath string
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply CLI overrides (command-line args take priority)
	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = scanRoot
	}
	if flags.Changed("listing") {
		cfg.Listing = scanListing
	}
	if flags.Changed("profile") || cfg.Profile == "" {
		cfg.Profile = scanProfile
	}
	if flags.Changed("log-name") {
		cfg.LogName = scanLogName
	}
	if flags.Changed("jobs") {
		cfg.Jobs = scanJobs
	}
	if flags.Changed("out") {
		cfg.Records = scanOut
	}
	if flags.Changed("failures") {
		cfg.Failures = scanFailures
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = scanCacheDir
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = scanDatabaseURL
	}
	cfg = cfg.MergeWithDefaults(config.Config{})

	if cfg.Root == "" && cfg.Listing == "" {
		return fmt.Errorf("either --root or --listing must be provided (via flag or config)")
	}
	if cfg.Root != "" && cfg.Listing != "" {
		return fmt.Errorf("--root and --listing are mutually exclusive; provide only one")
	}

	opts, err := buildScanOptions(cfg)
	if err != nil {
		return err
	}
	opts.Fresh = scanFresh
	opts.SummaryPath = scanSummary

	_, err = scanCorpus(cmd.Context(), opts)
	return err
}

func buildScanOptions(cfg config.Config) (scanOptions, error) {
	profile, err := parsing.LookupProfile(cfg.Profile)
	if err != nil {
		return scanOptions{}, err
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return scanOptions{
		Root:        cfg.Root,
		Listing:     cfg.Listing,
		Profile:     profile,
		LogName:     cfg.LogName,
		Jobs:        cfg.Jobs,
		Out:         cfg.Records,
		Failures:    cfg.Failures,
		CacheDir:    cfg.CacheDir,
		DatabaseURL: cfg.DatabaseURL,
	}, nil
}

func loadListing(opts scanOptions) (corpus.Listing, error) {
	if opts.Listing != "" {
		return corpus.LoadListing(opts.Listing)
	}
	logName := opts.LogName
	if logName == "" {
		logName = opts.Profile.LogName
	}
	return corpus.DiscoverListing(opts.Root, logName)
}

// scanCorpus runs a full scan and writes the record store, failure list and
// optional summary. It is the body of the scan command.
func scanCorpus(ctx context.Context, opts scanOptions) (*types.ScanSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("Step 1/3: Building corpus listing...\n")
	listing, err := loadListing(opts)
	if err != nil {
		return nil, err
	}
	verbosef("%d packages, %d logs, profile %s", len(listing), listing.LogCount(), opts.Profile.Name)
	verbosef("header markers: %q", opts.Profile.Markers())

	var cache *scancache.Cache
	if opts.CacheDir != "" {
		cache, err = scancache.Open(opts.CacheDir, scancache.DefaultMemoryEntries)
		if err != nil {
			return nil, fmt.Errorf("failed to open scan cache: %w", err)
		}
	}

	fmt.Printf("Step 2/3: Scanning %d logs...\n", listing.LogCount())
	agg := &corpus.Aggregator{
		Profile:    opts.Profile,
		Jobs:       opts.Jobs,
		Cache:      cache,
		OnProgress: progressPrinter(),
	}
	res, err := agg.Run(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("scan aborted: %w", err)
	}
	if res.CacheErrors > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: scan cache at %s failed for %d logs; they were scanned uncached\n",
			opts.CacheDir, res.CacheErrors)
	}

	fmt.Printf("Step 3/3: Writing results...\n")
	summary, err := finishRun(ctx, opts, res, listing.LogCount(), opts.Fresh)
	if err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Successfully scanned %d logs: %d records to %s, %d failures\n",
		summary.Scanned, summary.Records, opts.Out, summary.Failures)
	return summary, nil
}

// finishRun persists a run's output and builds its summary. The record store
// is appended to (or truncated when fresh); the failure list always holds the
// logs that failed in this run, appended unless freshFailures is set.
func finishRun(ctx context.Context, opts scanOptions, res *corpus.Result, logs int, freshFailures bool) (*types.ScanSummary, error) {
	writer, err := store.OpenRecordWriter(opts.Out, opts.Fresh)
	if err != nil {
		return nil, err
	}
	if err := writer.Write(res.Records); err != nil {
		_ = writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close record store: %w", err)
	}

	retry := res.RetryList()
	if err := store.WriteFailures(opts.Failures, retry, freshFailures); err != nil {
		return nil, err
	}
	for _, path := range res.Missing {
		verbosef("missing log: %s", path)
	}

	summary := &types.ScanSummary{
		Profile:    opts.Profile.Name,
		Packages:   len(res.Entries),
		Logs:       logs,
		Scanned:    res.Scanned,
		Cached:     res.Cached,
		Missing:    len(res.Missing),
		Records:    len(res.Records),
		Failures:   len(res.Failures),
		FailedLogs: len(retry),
		Lines:      res.Lines,
		Headers:    res.Headers,
	}

	if opts.DatabaseURL != "" {
		runID, err := persistRun(ctx, opts, res, summary)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to persist run to database: %v\n", err)
		} else {
			summary.RunID = runID
		}
	}

	if opts.SummaryPath != "" {
		if err := writeJSONReport(opts.SummaryPath, schemas.ScanSummarySchema, summary); err != nil {
			return nil, err
		}
	}

	if verbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintScanSummary(summary)
		printer.PrintFailures(res.Failures)
	}
	return summary, nil
}

func persistRun(ctx context.Context, opts scanOptions, res *corpus.Result, summary *types.ScanSummary) (string, error) {
	database, err := db.Connect(ctx, opts.DatabaseURL)
	if err != nil {
		return "", err
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return "", err
	}
	runID, err := database.CreateRun(ctx, opts.Profile.Name)
	if err != nil {
		return "", err
	}

	saveErr := errors.Join(
		database.SavePackages(ctx, runID, res.Entries),
		database.SaveRecords(ctx, runID, res.Records),
		database.SaveFailures(ctx, runID, res.Failures),
	)
	status := db.RunStatusCompleted
	if saveErr != nil {
		status = db.RunStatusFailed
	}
	counts := db.RunCounts{
		Logs:     summary.Logs,
		Records:  summary.Records,
		Failures: summary.Failures,
		Missing:  summary.Missing,
	}
	if err := database.CompleteRun(ctx, runID, status, counts); err != nil {
		return "", errors.Join(saveErr, err)
	}
	if saveErr != nil {
		return "", saveErr
	}

	verbosef("persisted run %s", runID)
	return runID.String(), nil
}

func progressPrinter() corpus.ProgressCallback {
	if !verbose {
		return nil
	}
	return func(e corpus.ProgressEvent) {
		verbosef("[%d/%d] %-8s %s (%s)", e.Done, e.Total, e.Step, e.PackageID, e.Message)
	}
}
