package corpus

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/convscan/internal/parsing"
	"github.com/jonathan/convscan/internal/scancache"
	"github.com/jonathan/convscan/internal/types"
)

// Progress step names emitted by the aggregator
const (
	StepScanned = "scanned"
	StepCached  = "cached"
	StepMissing = "missing"
	StepFailed  = "failed"
)

// ProgressEvent reports the outcome of one log during a run
type ProgressEvent struct {
	Step      string `json:"step"`
	PackageID string `json:"package_id"`
	LogPath   string `json:"log_path"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	Message   string `json:"message,omitempty"`
}

// ProgressCallback is called once per finished log. It may be called from
// several goroutines at once.
type ProgressCallback func(event ProgressEvent)

// Aggregator scans every log of a listing and merges the results
type Aggregator struct {
	Profile    parsing.Profile
	Jobs       int
	Cache      *scancache.Cache
	OnProgress ProgressCallback
}

// Result is the merged output of a corpus run
type Result struct {
	Records  []types.Record      `json:"records"`
	Failures []types.ScanFailure `json:"failures"`
	// Missing lists log paths that did not exist
	Missing []string `json:"missing"`
	// Scanned counts logs that were read, from cache or disk
	Scanned int                 `json:"scanned"`
	Cached  int                 `json:"cached"`
	Lines   int                 `json:"lines"`
	Headers int                 `json:"headers"`
	Entries []types.CorpusEntry `json:"entries"`
	// CacheErrors counts cache reads and writes that failed; those logs were scanned uncached
	CacheErrors int `json:"cache_errors"`
}

// RetryList returns the distinct log paths with at least one failure, in
// first-failure order.
func (r *Result) RetryList() []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range r.Failures {
		if f.LogPath == "" || seen[f.LogPath] {
			continue
		}
		seen[f.LogPath] = true
		out = append(out, f.LogPath)
	}
	return out
}

// logOutcome is the per-log slot filled by one worker
type logOutcome struct {
	records  []types.Record
	failures []types.ScanFailure
	missing  bool
	cached   bool
	lines    int
	headers  int
	cacheErr error
}

type logJob struct {
	packageID string
	path      string
}

// Run scans every log in the listing. Output order is listing order
// regardless of Jobs. Only context cancellation aborts the run; per-log
// problems become failures or missing entries.
func (a *Aggregator) Run(ctx context.Context, listing Listing) (*Result, error) {
	return a.run(ctx, listing, true)
}

// Retry rescans only the logs named by a previous failure list. The cache is
// bypassed so a fixed scanner sees the logs afresh.
func (a *Aggregator) Retry(ctx context.Context, failedLogs []string) (*Result, error) {
	return a.run(ctx, ListingFromFailures(failedLogs), false)
}

func (a *Aggregator) run(ctx context.Context, listing Listing, useCache bool) (*Result, error) {
	jobs := flatten(listing)
	outcomes := make([]logOutcome, len(jobs))

	limit := a.Jobs
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	if limit > len(jobs) {
		limit = len(jobs)
	}
	if limit < 1 {
		limit = 1
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = a.scanOne(job, useCache)
			a.emit(outcomes[i], job, int(done.Add(1)), len(jobs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Records:  []types.Record{},
		Failures: []types.ScanFailure{},
		Missing:  []string{},
		Entries:  listing.Packages(),
	}
	for i, o := range outcomes {
		if o.missing {
			result.Missing = append(result.Missing, jobs[i].path)
			continue
		}
		result.Scanned++
		if o.cached {
			result.Cached++
		}
		if o.cacheErr != nil {
			result.CacheErrors++
		}
		result.Lines += o.lines
		result.Headers += o.headers
		result.Records = append(result.Records, o.records...)
		result.Failures = append(result.Failures, o.failures...)
	}
	return result, nil
}

func (a *Aggregator) scanOne(job logJob, useCache bool) logOutcome {
	content, err := os.ReadFile(job.path)
	if err != nil {
		if isMissing(err) {
			return logOutcome{missing: true}
		}
		return logOutcome{failures: []types.ScanFailure{{
			PackageID: job.packageID,
			LogPath:   job.path,
			Reason:    fmt.Sprintf("failed to read log: %v", err),
		}}}
	}

	var key string
	var cacheErr error
	if useCache && a.Cache != nil {
		key = scancache.Key(a.Profile.Name, job.packageID, job.path, content)
		entry, ok, err := a.Cache.Get(key)
		switch {
		case err != nil:
			cacheErr = err
		case ok:
			return logOutcome{
				records:  entry.Records,
				failures: entry.Failures,
				cached:   true,
				lines:    entry.Lines,
				headers:  entry.Headers,
			}
		}
	}

	scanner := parsing.NewScanner(job.packageID, a.Profile)
	res, err := scanner.Scan(bytes.NewReader(content), job.path)
	out := logOutcome{
		records:  res.Records,
		failures: res.Failures,
		lines:    res.Lines,
		headers:  res.Headers,
		cacheErr: cacheErr,
	}
	// Only clean scans are cached. A log with failures stays on the retry
	// list, and a read error leaves a partial result.
	if err != nil || key == "" || len(res.Failures) > 0 {
		return out
	}
	if err := a.Cache.Put(key, &scancache.Entry{
		Records: res.Records,
		Lines:   res.Lines,
		Headers: res.Headers,
	}); err != nil && out.cacheErr == nil {
		out.cacheErr = err
	}
	return out
}

func (a *Aggregator) emit(o logOutcome, job logJob, done, total int) {
	if a.OnProgress == nil {
		return
	}
	step := StepScanned
	switch {
	case o.missing:
		step = StepMissing
	case len(o.failures) > 0:
		step = StepFailed
	case o.cached:
		step = StepCached
	}
	msg := fmt.Sprintf("%d records, %d failures", len(o.records), len(o.failures))
	if o.cacheErr != nil {
		msg += fmt.Sprintf("; cache: %v", o.cacheErr)
	}
	a.OnProgress(ProgressEvent{
		Step:      step,
		PackageID: job.packageID,
		LogPath:   job.path,
		Done:      done,
		Total:     total,
		Message:   msg,
	})
}

func flatten(listing Listing) []logJob {
	jobs := make([]logJob, 0, listing.LogCount())
	for _, e := range listing {
		for _, p := range e.LogPaths {
			jobs = append(jobs, logJob{packageID: e.PackageID, path: p})
		}
	}
	return jobs
}
