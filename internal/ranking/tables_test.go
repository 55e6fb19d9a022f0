package ranking

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNormalizeRepoKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://api.github.com/repos/serde-rs/serde", "serde-rs/serde"},
		{"https://github.com/tokio-rs/bytes/", "tokio-rs/bytes"},
		{"https://github.com/tokio-rs/bytes.git", "tokio-rs/bytes"},
		{" serde-rs/serde ", "serde-rs/serde"},
		{"plain-name", "plain-name"},
		{"none", "none"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRepoKey(tt.in))
		})
	}
}

func TestLoadStarTable(t *testing.T) {
	path := writeTable(t, "crate,stars\n"+
		"https://api.github.com/repos/serde-rs/serde,8500\n"+
		"tokio-rs/bytes, 1700\n"+
		"broken-row\n"+
		"bad/count,lots\n"+
		"tokio-rs/bytes,1800\n")

	stars, err := LoadStarTable(path)
	require.NoError(t, err)
	assert.Equal(t, StarTable{"serde-rs/serde": 8500, "tokio-rs/bytes": 1800}, stars)
}

func TestLoadCrateMetadata(t *testing.T) {
	path := writeTable(t, "serde,1.0.188,serde-rs/serde\n"+
		"nolink,0.1.0,none\n"+
		"short,1.0.0\n"+
		"bytes,1.4.0,https://github.com/tokio-rs/bytes\n")

	meta, err := LoadCrateMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, []CrateMetadata{
		{CanonicalID: "serde", Version: "1.0.188", PackageName: "serde-rs/serde"},
		{CanonicalID: "bytes", Version: "1.4.0", PackageName: "tokio-rs/bytes"},
	}, meta)
}

func TestLoadTables_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.csv")

	_, err := LoadStarTable(missing)
	var tableErr *TableError
	require.True(t, errors.As(err, &tableErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = LoadCrateMetadata(missing)
	assert.Error(t, err)
}

func TestLoadTables_Join(t *testing.T) {
	stars, err := LoadStarTable(writeTable(t, "https://api.github.com/repos/a/one,5\nhttps://api.github.com/repos/b/two,50\n"))
	require.NoError(t, err)
	meta, err := LoadCrateMetadata(writeTable(t, "one,1.0.0,a/one\ntwo,0.3.1,b/two\nthree,1.0.0,c/three\n"))
	require.NoError(t, err)

	ranked := RankByPopularity(nil, stars, meta)
	require.Len(t, ranked, 2)
	assert.Equal(t, "two-0.3.1", ranked[0].VersionedID())
	assert.Equal(t, "one-1.0.0", ranked[1].VersionedID())
}
