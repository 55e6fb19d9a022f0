package parsing

import (
	"sort"

	"github.com/jonathan/convscan/internal/types"
)

// Profile describes one log format: the header kinds it carries and the
// file name the external linter or detector writes into each package directory.
type Profile struct {
	Name    string
	Kinds   []types.Kind
	LogName string
}

var profiles = map[string]Profile{
	"cast": {
		Name:    "cast",
		Kinds:   []types.Kind{types.KindPointerCast},
		LogName: "cast.log",
	},
	"transmute": {
		Name:    "transmute",
		Kinds:   []types.Kind{types.KindTransmute},
		LogName: "lint.log",
	},
	"lint": {
		Name:    "lint",
		Kinds:   []types.Kind{types.KindPointerCast, types.KindTransmute},
		LogName: "lint_abp.log",
	},
	"bugs": {
		Name:    "bugs",
		Kinds:   []types.Kind{types.KindBrokenLayout, types.KindUninitExposure, types.KindBrokenBitPatterns},
		LogName: "report.txt",
	},
}

// Markers returns the header markers the profile matches, in kind order.
func (p Profile) Markers() []string {
	out := make([]string, 0, len(p.Kinds))
	for _, k := range p.Kinds {
		out = append(out, Marker(k))
	}
	return out
}

// DefaultProfile is used when no profile is configured.
const DefaultProfile = "lint"

// LookupProfile returns the named profile.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, &ProfileError{Name: name}
	}
	return p, nil
}

// ProfileNames returns the known profile names in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
