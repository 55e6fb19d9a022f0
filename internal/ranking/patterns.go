package ranking

import (
	"sort"

	"github.com/jonathan/convscan/internal/types"
)

// PatternFrequency groups records by (kind, from type, to type) and returns
// the counts sorted by count descending, ties broken by key order. Bug
// records carry no types and are grouped by kind alone.
func PatternFrequency(records []types.Record) []types.PatternCount {
	counts := make(map[types.PatternKey]int)
	for _, r := range records {
		counts[r.PatternKey()]++
	}

	out := make([]types.PatternCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, types.PatternCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key.Less(out[j].Key)
	})
	return out
}

// NewPatternReport wraps counts for JSON output. A positive top keeps only
// the first top patterns; Total always covers every record.
func NewPatternReport(counts []types.PatternCount, top int) *types.PatternReport {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if top > 0 && top < len(counts) {
		counts = counts[:top]
	}
	return &types.PatternReport{Total: total, Patterns: counts}
}
