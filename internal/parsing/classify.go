package parsing

import (
	"strings"

	"github.com/jonathan/convscan/internal/types"
)

// Classify returns the diagnostic kind whose header marker opens the line,
// or types.KindNone. When kinds is non-empty only those kinds are considered.
// Lines that are not valid UTF-8 are never headers.
func Classify(line string, kinds ...types.Kind) types.Kind {
	line = normalizeLine(line)
	if !decodable(line) {
		return types.KindNone
	}
	for i := range grammars {
		g := &grammars[i]
		if len(kinds) > 0 && !containsKind(kinds, g.kind) {
			continue
		}
		if strings.HasPrefix(line, g.marker) {
			return g.kind
		}
	}
	return types.KindNone
}

func containsKind(kinds []types.Kind, kind types.Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
