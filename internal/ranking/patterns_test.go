package ranking

import (
	"bytes"
	"testing"

	"github.com/jonathan/convscan/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transmute(from, to string) types.Record {
	return types.Record{Kind: types.KindTransmute, FromType: from, ToType: to, SourceLocation: "x"}
}

func cast(from, to string) types.Record {
	return types.Record{Kind: types.KindPointerCast, FromType: from, ToType: to, SourceLocation: "x"}
}

func TestPatternFrequency(t *testing.T) {
	records := []types.Record{
		cast("*const u8", "*const u32"),
		transmute("u32", "f32"),
		transmute("u32", "f32"),
		transmute("u32", "f32"),
	}

	counts := PatternFrequency(records)
	require.Len(t, counts, 2)
	assert.Equal(t, types.PatternCount{
		Key:   types.PatternKey{Kind: types.KindTransmute, FromType: "u32", ToType: "f32"},
		Count: 3,
	}, counts[0])
	assert.Equal(t, 1, counts[1].Count)
	assert.Equal(t, "cast:*const u8>*const u32", counts[1].Key.String())
}

func TestPatternFrequency_TiesAndBugs(t *testing.T) {
	records := []types.Record{
		transmute("u8", "i8"),
		{Kind: types.KindBrokenLayout, Caller: "a"},
		cast("*const A", "*const B"),
		{Kind: types.KindBrokenLayout, Caller: "b"},
		cast("*const A", "*const B"),
		transmute("u8", "i8"),
	}

	counts := PatternFrequency(records)
	require.Len(t, counts, 3)
	keys := []string{counts[0].Key.String(), counts[1].Key.String(), counts[2].Key.String()}
	assert.Equal(t, []string{"broken-layout", "cast:*const A>*const B", "transmute:u8>i8"}, keys)
	for _, c := range counts {
		assert.Equal(t, 2, c.Count)
	}
}

func TestPatternFrequency_Empty(t *testing.T) {
	assert.Empty(t, PatternFrequency(nil))
}

func TestNewPatternReport(t *testing.T) {
	counts := PatternFrequency([]types.Record{
		transmute("u32", "f32"), transmute("u32", "f32"), cast("*const u8", "*mut u8"),
	})

	report := NewPatternReport(counts, 1)
	assert.Equal(t, 3, report.Total)
	require.Len(t, report.Patterns, 1)
	assert.Equal(t, 2, report.Patterns[0].Count)

	assert.Len(t, NewPatternReport(counts, 0).Patterns, 2)
	assert.Len(t, NewPatternReport(counts, 10).Patterns, 2)
}

func TestWritePatterns(t *testing.T) {
	counts := PatternFrequency([]types.Record{
		transmute("(u8, u8)", "u16"), transmute("(u8, u8)", "u16"), cast("*const u8", "*mut u8"),
	})

	var buf bytes.Buffer
	require.NoError(t, WritePatterns(&buf, counts))
	assert.Equal(t, "\"transmute:(u8, u8)>u16\",2\ncast:*const u8>*mut u8,1\n", buf.String())
}

func TestWriteRanking(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRanking(&buf, []types.RankedPackage{
		{Rank: 1, CanonicalID: "serde", Version: "1.0.188", Stars: 10},
		{Rank: 2, CanonicalID: "unversioned", Stars: 5},
	}))
	assert.Equal(t, "serde-1.0.188\nunversioned\n", buf.String())
}
