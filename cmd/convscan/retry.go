package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/convscan/internal/config"
	"github.com/jonathan/convscan/internal/corpus"
	"github.com/jonathan/convscan/internal/parsing"
	"github.com/jonathan/convscan/internal/store"
	"github.com/jonathan/convscan/internal/types"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-scan the logs named in a failure list",
	Long: `Re-scans only the logs listed in a failure list, appends the new records to the record store,
and rewrites the failure list with the logs that still fail. The package of each log is the name
of the directory holding it. The scan cache is bypassed.`,
	RunE: runRetry,
}

var (
	retryFailures    string
	retryOut         string
	retryProfile     string
	retryJobs        int
	retryDatabaseURL string
	retrySummary     string
)

func init() {
	retryCmd.Flags().StringVarP(&retryFailures, "failures", "f", "", "Failure list to retry (required)")
	retryCmd.Flags().StringVarP(&retryOut, "out", "o", "", "Record store to append to (default \"records.csv\")")
	retryCmd.Flags().StringVarP(&retryProfile, "profile", "p", parsing.DefaultProfile, "Scan profile: cast, transmute, lint or bugs")
	retryCmd.Flags().IntVarP(&retryJobs, "jobs", "j", 0, "Number of logs scanned concurrently (defaults to the CPU count)")
	retryCmd.Flags().StringVar(&retryDatabaseURL, "database-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	retryCmd.Flags().StringVar(&retrySummary, "summary", "", "Write a JSON summary to this path")

	if err := retryCmd.MarkFlagRequired("failures"); err != nil {
		panic(fmt.Sprintf("failed to mark failures flag as required: %v", err))
	}

	rootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	cfg.Failures = retryFailures
	if flags.Changed("out") {
		cfg.Records = retryOut
	}
	if flags.Changed("profile") || cfg.Profile == "" {
		cfg.Profile = retryProfile
	}
	if flags.Changed("jobs") {
		cfg.Jobs = retryJobs
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = retryDatabaseURL
	}
	cfg = cfg.MergeWithDefaults(config.Config{})

	opts, err := buildScanOptions(cfg)
	if err != nil {
		return err
	}
	opts.SummaryPath = retrySummary

	_, err = retryFailed(cmd.Context(), opts)
	return err
}

// retryFailed re-scans the logs of opts.Failures. Records are always
// appended; the failure list is replaced by what still fails.
func retryFailed(ctx context.Context, opts scanOptions) (*types.ScanSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	failed, err := store.ReadFailures(opts.Failures)
	if err != nil {
		return nil, err
	}
	if len(failed) == 0 {
		_, _ = fmt.Fprintf(os.Stdout, "No failed logs in %s\n", opts.Failures)
		return &types.ScanSummary{Profile: opts.Profile.Name}, nil
	}

	fmt.Printf("Retrying %d failed logs...\n", len(failed))
	agg := &corpus.Aggregator{
		Profile:    opts.Profile,
		Jobs:       opts.Jobs,
		OnProgress: progressPrinter(),
	}
	res, err := agg.Retry(ctx, failed)
	if err != nil {
		return nil, fmt.Errorf("retry aborted: %w", err)
	}

	opts.Fresh = false
	summary, err := finishRun(ctx, opts, res, len(failed), true)
	if err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Retried %d logs: %d records appended to %s, %d logs still failing\n",
		summary.Scanned, summary.Records, opts.Out, summary.FailedLogs)
	return summary, nil
}
