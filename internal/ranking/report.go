package ranking

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jonathan/convscan/internal/types"
)

// WritePatterns writes one "pattern,count" row per entry. Patterns holding
// commas (tuple types) are quoted.
func WritePatterns(w io.Writer, counts []types.PatternCount) error {
	cw := csv.NewWriter(w)
	for _, c := range counts {
		if err := cw.Write([]string{c.Key.String(), strconv.Itoa(c.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRanking writes one "canonical_id-version" line per package in rank order.
func WriteRanking(w io.Writer, ranked []types.RankedPackage) error {
	bw := bufio.NewWriter(w)
	for _, p := range ranked {
		if _, err := bw.WriteString(p.VersionedID() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
