package ranking

import (
	"fmt"
	"sort"

	"github.com/jonathan/convscan/internal/types"
)

// FindingCounts returns the number of records per package id.
func FindingCounts(records []types.Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.PackageID]++
	}
	return counts
}

// RankByPopularity joins metadata rows against the star table and sorts the
// result by stars, most-starred first, ties broken by versioned id. Rows
// absent from the star table are dropped silently.
//
// When findings is non-nil only packages with findings are kept; a package
// matches either by canonical id or by "canonical_id-version". A nil
// findings map ranks every joined package.
func RankByPopularity(findings map[string]int, stars StarTable, meta []CrateMetadata) []types.RankedPackage {
	ranked := make([]types.RankedPackage, 0, len(meta))
	seen := make(map[string]bool, len(meta))

	for _, m := range meta {
		count, ok := stars[m.PackageName]
		if !ok {
			continue
		}
		pkg := types.RankedPackage{
			CanonicalID: m.CanonicalID,
			Version:     m.Version,
			Stars:       count,
		}
		id := pkg.VersionedID()
		if seen[id] {
			continue
		}

		if findings != nil {
			pkg.Findings = matchFindings(findings, pkg)
			if pkg.Findings == 0 {
				continue
			}
		}
		seen[id] = true
		ranked = append(ranked, pkg)
	}

	sortByStars(ranked)
	return ranked
}

// BuggyByPopularity keeps the packages of a ranking that have at least one
// bug-kind record, preserving ranking order. Findings is replaced by the bug
// record count and ranks are renumbered.
func BuggyByPopularity(ranked []types.RankedPackage, records []types.Record) []types.RankedPackage {
	bugs := make(map[string]int)
	for _, r := range records {
		if r.Kind.IsBug() {
			bugs[r.PackageID]++
		}
	}

	out := make([]types.RankedPackage, 0)
	for _, pkg := range ranked {
		n := matchFindings(bugs, pkg)
		if n == 0 {
			continue
		}
		pkg.Findings = n
		pkg.Rank = len(out) + 1
		out = append(out, pkg)
	}
	return out
}

// PopularityEntries turns a ranking into corpus entries with Popularity set
// to the star count, in rank order.
func PopularityEntries(ranked []types.RankedPackage) ([]types.CorpusEntry, error) {
	entries := make([]types.CorpusEntry, 0, len(ranked))
	for _, pkg := range ranked {
		entry := pkg.Entry()
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("ranked package %s: %w", pkg.VersionedID(), err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func matchFindings(findings map[string]int, pkg types.RankedPackage) int {
	n := findings[pkg.VersionedID()]
	if pkg.Version != "" {
		n += findings[pkg.CanonicalID]
	}
	return n
}

func sortByStars(ranked []types.RankedPackage) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Stars != ranked[j].Stars {
			return ranked[i].Stars > ranked[j].Stars
		}
		return ranked[i].VersionedID() < ranked[j].VersionedID()
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
}
