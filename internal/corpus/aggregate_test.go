package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jonathan/convscan/internal/parsing"
	"github.com/jonathan/convscan/internal/scancache"
	"github.com/jonathan/convscan/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const castBlock = "warning: Here is cast(fn get>*const u8>*const u32=>const>align: 1>4)\n" +
	"  --> src/buf.rs:10:5\n"

const transmuteBlock = "warning: Here is transmute(fn from_bits>u16>f16=>size ok)\n" +
	"  --> src/lib.rs:1:1\n"

const brokenBlock = "warning: Here is cast(fn broken>only-two=>const>x)\n" +
	"  --> src/bad.rs:1:1\n"

func lintProfile(t *testing.T) parsing.Profile {
	t.Helper()
	p, err := parsing.LookupProfile("lint")
	require.NoError(t, err)
	return p
}

// writeCorpus lays out root/<pkg>/lint_abp.log for each package with the given content.
func writeCorpus(t *testing.T, logs map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for pkg, content := range logs {
		dir := filepath.Join(root, pkg)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "lint_abp.log"), []byte(content), 0644))
	}
	return root
}

func TestAggregator_Run(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"bytes-1.4.0": castBlock + transmuteBlock,
		"half-2.2.1":  transmuteBlock,
		"zeta-0.1.0":  "nothing interesting\n",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-1.0.0"), 0755))

	listing, err := DiscoverListing(root, "lint_abp.log")
	require.NoError(t, err)
	require.Len(t, listing, 4)

	agg := &Aggregator{Profile: lintProfile(t), Jobs: 2}
	res, err := agg.Run(context.Background(), listing)
	require.NoError(t, err)

	require.Len(t, res.Records, 3)
	assert.Equal(t, "bytes-1.4.0", res.Records[0].PackageID)
	assert.Equal(t, types.KindPointerCast, res.Records[0].Kind)
	assert.Equal(t, types.KindTransmute, res.Records[1].Kind)
	assert.Equal(t, "half-2.2.1", res.Records[2].PackageID)

	assert.Empty(t, res.Failures)
	assert.Equal(t, []string{filepath.Join(root, "empty-1.0.0", "lint_abp.log")}, res.Missing)
	assert.Equal(t, 3, res.Scanned)
	assert.Len(t, res.Entries, 4)
	assert.Equal(t, "bytes", res.Entries[0].Name)
	assert.Equal(t, "1.4.0", res.Entries[0].Version)
}

func TestAggregator_OrderIndependentOfJobs(t *testing.T) {
	logs := make(map[string]string)
	for i := 0; i < 25; i++ {
		content := castBlock
		if i%3 == 0 {
			content = transmuteBlock + brokenBlock + castBlock
		}
		logs[fmt.Sprintf("pkg%02d-1.0.%d", i, i)] = content
	}
	root := writeCorpus(t, logs)
	listing, err := DiscoverListing(root, "lint_abp.log")
	require.NoError(t, err)

	serial, err := (&Aggregator{Profile: lintProfile(t), Jobs: 1}).Run(context.Background(), listing)
	require.NoError(t, err)

	for _, jobs := range []int{2, 8, 64} {
		parallel, err := (&Aggregator{Profile: lintProfile(t), Jobs: jobs}).Run(context.Background(), listing)
		require.NoError(t, err)
		assert.Equal(t, serial.Records, parallel.Records, "jobs=%d", jobs)
		assert.Equal(t, serial.Failures, parallel.Failures, "jobs=%d", jobs)
	}
}

func TestAggregator_FailuresAndRetry(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"good-1.0.0": castBlock,
		"bad-2.0.0":  brokenBlock + castBlock,
	})
	listing, err := DiscoverListing(root, "lint_abp.log")
	require.NoError(t, err)

	agg := &Aggregator{Profile: lintProfile(t), Jobs: 4}
	res, err := agg.Run(context.Background(), listing)
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	badLog := filepath.Join(root, "bad-2.0.0", "lint_abp.log")
	assert.Equal(t, badLog, res.Failures[0].LogPath)
	assert.Equal(t, 1, res.Failures[0].Line)
	assert.Equal(t, []string{badLog}, res.RetryList())
	assert.Len(t, res.Records, 2, "the valid block after a failed header is still captured")

	retried, err := agg.Retry(context.Background(), res.RetryList())
	require.NoError(t, err)
	require.Len(t, retried.Records, 1)
	assert.Equal(t, "bad-2.0.0", retried.Records[0].PackageID)
	assert.Equal(t, 1, retried.Scanned)
}

func TestAggregator_Cache(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a-1.0.0": castBlock, "b-1.0.0": transmuteBlock})
	listing, err := DiscoverListing(root, "lint_abp.log")
	require.NoError(t, err)

	cache, err := scancache.Open(t.TempDir(), 0)
	require.NoError(t, err)
	agg := &Aggregator{Profile: lintProfile(t), Jobs: 2, Cache: cache}

	first, err := agg.Run(context.Background(), listing)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Cached)

	second, err := agg.Run(context.Background(), listing)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Cached)
	assert.Equal(t, first.Records, second.Records)

	// Changing a log invalidates its entry.
	require.NoError(t, os.WriteFile(listing[0].LogPaths[0], []byte(castBlock+castBlock), 0644))
	third, err := agg.Run(context.Background(), listing)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Cached)
	assert.Len(t, third.Records, 3)
}

func TestAggregator_Progress(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a-1.0.0": castBlock, "b-1.0.0": brokenBlock})
	listing, err := DiscoverListing(root, "lint_abp.log")
	require.NoError(t, err)
	listing = append(listing, Entry{PackageID: "gone-1.0.0", LogPaths: []string{filepath.Join(root, "gone", "lint_abp.log")}})

	var mu sync.Mutex
	steps := make(map[string]string)
	agg := &Aggregator{Profile: lintProfile(t), Jobs: 3, OnProgress: func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		steps[e.PackageID] = e.Step
		assert.Equal(t, 3, e.Total)
	}}
	_, err = agg.Run(context.Background(), listing)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"a-1.0.0":    StepScanned,
		"b-1.0.0":    StepFailed,
		"gone-1.0.0": StepMissing,
	}, steps)
}

func TestAggregator_Cancelled(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a-1.0.0": castBlock})
	listing, err := DiscoverListing(root, "lint_abp.log")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&Aggregator{Profile: lintProfile(t), Jobs: 1}).Run(ctx, listing)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregator_EmptyListing(t *testing.T) {
	res, err := (&Aggregator{Profile: lintProfile(t)}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 0, res.Scanned)
}

func TestAggregator_CacheSkipsLogsWithFailures(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"good-1.0.0": castBlock,
		"bad-1.0.0":  brokenBlock + castBlock,
	})
	listing, err := DiscoverListing(root, "lint_abp.log")
	require.NoError(t, err)

	cache, err := scancache.Open(t.TempDir(), 0)
	require.NoError(t, err)
	agg := &Aggregator{Profile: lintProfile(t), Jobs: 2, Cache: cache}

	_, err = agg.Run(context.Background(), listing)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	second, err := agg.Run(context.Background(), listing)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Cached)
	require.Len(t, second.Failures, 1)
	assert.Equal(t, filepath.Join(root, "bad-1.0.0", "lint_abp.log"), second.Failures[0].LogPath)
}

func TestAggregator_CacheErrorsAreReported(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a-1.0.0": castBlock})
	listing, err := DiscoverListing(root, "lint_abp.log")
	require.NoError(t, err)

	dir := t.TempDir()
	cache, err := scancache.Open(dir, 0)
	require.NoError(t, err)
	// Replace the entry directory with a file so every disk access fails.
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "scans")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scans"), []byte("x"), 0644))

	var messages []string
	agg := &Aggregator{Profile: lintProfile(t), Jobs: 1, Cache: cache, OnProgress: func(e ProgressEvent) {
		messages = append(messages, e.Message)
	}}
	res, err := agg.Run(context.Background(), listing)
	require.NoError(t, err)

	assert.Equal(t, 1, res.CacheErrors)
	assert.Len(t, res.Records, 1, "a broken cache does not lose records")
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "cache:")
}
